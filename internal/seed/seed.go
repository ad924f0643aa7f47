// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"reelfeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	FollowsPerUser  int
	CommentsPerPost int
	// LikeRatio is the fraction of user/post pairs that get a like, in [0,1].
	LikeRatio   float64
	ShouldClean bool
}

// DefaultOptions returns a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:        25,
		NumPosts:        120,
		FollowsPerUser:  6,
		CommentsPerPost: 3,
		LikeRatio:       0.15,
		ShouldClean:     false,
	}
}

// SeedPassword is the password every seeded account gets.
const SeedPassword = "SeedPass123!@"

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	if err := createFollows(db, users, opts.FollowsPerUser); err != nil {
		return fmt.Errorf("failed to create follows: %w", err)
	}

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := createEngagement(db, users, posts, opts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	if err := createMessages(db, users); err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE post_views, comments, likes, messages, follows, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	// One hash for everyone; hashing per user makes seeding crawl.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count+1)
	users = append(users, models.User{
		Username:     "admin",
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
		Bio:          "Keeping the feed tidy.",
		Avatar:       "https://i.pravatar.cc/150?u=admin",
	})

	seen := map[string]struct{}{"admin": {}}
	for len(users) < count+1 {
		username := gofakeit.Username()
		if len(username) < 3 || len(username) > 32 {
			continue
		}
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}

		users = append(users, models.User{
			Username:     username,
			PasswordHash: string(hashedPassword),
			Role:         "user",
			Bio:          gofakeit.Sentence(8),
			Avatar:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		})
	}

	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func createFollows(db *gorm.DB, users []models.User, perUser int) error {
	if perUser <= 0 || len(users) < 2 {
		return nil
	}

	follows := make([]models.Follow, 0, len(users)*perUser)
	for _, follower := range users {
		picked := map[uint]struct{}{}
		for len(picked) < perUser && len(picked) < len(users)-1 {
			target := users[rand.Intn(len(users))]
			if target.ID == follower.ID {
				continue
			}
			if _, dup := picked[target.ID]; dup {
				continue
			}
			picked[target.ID] = struct{}{}

			id := target.ID
			follows = append(follows, models.Follow{
				FollowerID:  follower.ID,
				FollowingID: &id,
			})
		}
	}
	return db.CreateInBatches(&follows, 200).Error
}

func createPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		postType := models.PostTypeVideo
		media := models.MediaList{fmt.Sprintf("videos/%s.mp4", gofakeit.UUID())}
		if rand.Float64() < 0.25 {
			postType = models.PostTypeCarousel
			media = models.MediaList{
				fmt.Sprintf("images/%s.jpg", gofakeit.UUID()),
				fmt.Sprintf("images/%s.jpg", gofakeit.UUID()),
			}
		}

		status := models.PostStatusApproved
		switch r := rand.Float64(); {
		case r < 0.08:
			status = models.PostStatusPending
		case r < 0.10:
			status = models.PostStatusRejected
		}

		posts = append(posts, models.Post{
			UserID:      author.ID,
			Username:    author.Username,
			Title:       gofakeit.Sentence(5),
			Description: gofakeit.Paragraph(1, 2, 8, " "),
			Type:        postType,
			Media:       media,
			Status:      status,
			CreatedAt:   time.Now().Add(-time.Duration(rand.Intn(90*24)) * time.Hour),
		})
	}

	if err := db.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// createEngagement writes like/comment/view rows and keeps the denormalized
// counters on the post rows consistent with them.
func createEngagement(db *gorm.DB, users []models.User, posts []models.Post, opts Options) error {
	for i := range posts {
		post := &posts[i]

		var likes []models.Like
		for _, user := range users {
			if rand.Float64() < opts.LikeRatio {
				likes = append(likes, models.Like{PostID: post.ID, UserID: user.ID})
			}
		}
		if len(likes) > 0 {
			if err := db.CreateInBatches(&likes, 200).Error; err != nil {
				return err
			}
		}

		var comments []models.Comment
		for j := 0; j < opts.CommentsPerPost; j++ {
			commenter := users[rand.Intn(len(users))]
			comments = append(comments, models.Comment{
				PostID:   post.ID,
				UserID:   commenter.ID,
				Username: commenter.Username,
				Text:     gofakeit.Sentence(10),
			})
		}
		if len(comments) > 0 {
			if err := db.CreateInBatches(&comments, 200).Error; err != nil {
				return err
			}
		}

		var views []models.PostView
		numViews := rand.Intn(len(users) + 1)
		for _, user := range users[:numViews] {
			views = append(views, models.PostView{
				PostID:    post.ID,
				ViewerKey: fmt.Sprintf("user:%d", user.ID),
			})
		}
		if len(views) > 0 {
			if err := db.CreateInBatches(&views, 200).Error; err != nil {
				return err
			}
		}

		if err := db.Model(post).Updates(map[string]interface{}{
			"likes_count":    len(likes),
			"comments_count": len(comments),
			"views_count":    len(views),
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func createMessages(db *gorm.DB, users []models.User) error {
	if len(users) < 2 {
		return nil
	}

	var messages []models.Message
	for i := 0; i < len(users)*4; i++ {
		from := users[rand.Intn(len(users))]
		to := users[rand.Intn(len(users))]
		if from.ID == to.ID {
			continue
		}
		messages = append(messages, models.Message{
			FromUsername: from.Username,
			ToUsername:   to.Username,
			Text:         gofakeit.Sentence(8),
			CreatedAt:    time.Now().Add(-time.Duration(rand.Intn(7*24*60)) * time.Minute),
		})
	}
	if len(messages) == 0 {
		return nil
	}
	return db.CreateInBatches(&messages, 200).Error
}
