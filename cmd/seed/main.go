// Command main runs the database seeder for Reelfeed.
package main

import (
	"flag"
	"log"

	"reelfeed/internal/config"
	"reelfeed/internal/database"
	"reelfeed/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 120, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a YAML preset file instead of random data")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *preset != "" {
		log.Printf("Applying preset %s (ignoring other flags)", *preset)
		p, err := seed.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("Preset load failed: %v", err)
		}
		if err := p.Apply(db); err != nil {
			log.Fatalf("Preset seeding failed: %v", err)
		}
	} else {
		opts := seed.DefaultOptions()
		opts.NumUsers = *numUsers
		opts.NumPosts = *numPosts
		opts.ShouldClean = *shouldClean
		if err := seed.Seed(db, opts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Printf("All done. Every seeded account uses the password: %s", seed.SeedPassword)
}
