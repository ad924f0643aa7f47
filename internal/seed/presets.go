package seed

import (
	"fmt"
	"os"
	"time"

	"reelfeed/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Preset is a hand-written dataset loaded from a YAML file. Unlike random
// seeding it is deterministic, which makes it useful for demos and for
// reproducing bug reports.
type Preset struct {
	Users []struct {
		Username string `yaml:"username"`
		Role     string `yaml:"role"`
		Bio      string `yaml:"bio"`
	} `yaml:"users"`
	Follows []struct {
		Follower  string `yaml:"follower"`
		Following string `yaml:"following"`
	} `yaml:"follows"`
	Posts []struct {
		Author      string   `yaml:"author"`
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Type        string   `yaml:"type"`
		Status      string   `yaml:"status"`
		Media       []string `yaml:"media"`
	} `yaml:"posts"`
}

// LoadPreset parses a preset file.
func LoadPreset(path string) (*Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	var preset Preset
	if err := yaml.Unmarshal(raw, &preset); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	return &preset, nil
}

// Apply writes the preset into the database. Usernames referenced by follows
// and posts must appear in the users section.
func (p *Preset) Apply(db *gorm.DB) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	byName := make(map[string]*models.User, len(p.Users))
	for _, u := range p.Users {
		role := u.Role
		if role == "" {
			role = "user"
		}
		user := &models.User{
			Username:     u.Username,
			PasswordHash: string(hashedPassword),
			Role:         role,
			Bio:          u.Bio,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user %q: %w", u.Username, err)
		}
		byName[u.Username] = user
	}

	for _, f := range p.Follows {
		follower, ok := byName[f.Follower]
		if !ok {
			return fmt.Errorf("unknown follower %q", f.Follower)
		}
		following, ok := byName[f.Following]
		if !ok {
			return fmt.Errorf("unknown following %q", f.Following)
		}
		id := following.ID
		if err := db.Create(&models.Follow{
			FollowerID:  follower.ID,
			FollowingID: &id,
		}).Error; err != nil {
			return fmt.Errorf("failed to create follow %s -> %s: %w", f.Follower, f.Following, err)
		}
	}

	for i, post := range p.Posts {
		author, ok := byName[post.Author]
		if !ok {
			return fmt.Errorf("unknown post author %q", post.Author)
		}
		postType := post.Type
		if postType == "" {
			postType = models.PostTypeVideo
		}
		status := post.Status
		if status == "" {
			status = models.PostStatusApproved
		}
		if err := db.Create(&models.Post{
			UserID:      author.ID,
			Username:    author.Username,
			Title:       post.Title,
			Description: post.Description,
			Type:        postType,
			Media:       models.MediaList(post.Media),
			Status:      status,
			CreatedAt:   time.Now().Add(-time.Duration(len(p.Posts)-i) * time.Minute),
		}).Error; err != nil {
			return fmt.Errorf("failed to create post %q: %w", post.Title, err)
		}
	}

	return nil
}
