// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"microblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	NumMessages int
	ShouldClean bool
	// FollowRatio is the chance (0..1) that any user follows any other user.
	FollowRatio float64
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	edges, err := createFollowGraph(db, users, opts.FollowRatio)
	if err != nil {
		return fmt.Errorf("failed to create follow graph: %w", err)
	}
	log.Printf("✓ %d follow edges created", edges)

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	msgs, err := createMessages(db, users, opts.NumMessages)
	if err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}
	log.Printf("✓ %d messages created", msgs)

	return nil
}

// clearData wipes seedable tables. Order matters for foreign keys.
func clearData(db *gorm.DB) error {
	for _, model := range []any{
		&models.Notification{}, &models.Task{}, &models.Message{},
		&models.Post{}, &models.Follow{}, &models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, n int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, models.User{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:        gofakeit.Email(),
			PasswordHash: string(hashed),
			Bio:          gofakeit.Sentence(8),
			LastSeen:     time.Now().UTC().Add(-time.Duration(rand.Intn(72)) * time.Hour),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func createFollowGraph(db *gorm.DB, users []models.User, ratio float64) (int, error) {
	if ratio <= 0 {
		ratio = 0.1
	}

	count := 0
	for _, follower := range users {
		for _, followed := range users {
			if follower.ID == followed.ID || rand.Float64() > ratio {
				continue
			}
			edge := models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
			if err := db.Create(&edge).Error; err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func createPosts(db *gorm.DB, users []models.User, n int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		posts = append(posts, models.Post{
			Body:     gofakeit.Sentence(gofakeit.Number(5, 20)),
			UserID:   author.ID,
			Language: "en",
			// Spread posts over the last 30 days so timelines look lived-in.
			Timestamp: time.Now().UTC().Add(-time.Duration(rand.Intn(30*24)) * time.Hour),
		})
	}
	if err := db.Create(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func createMessages(db *gorm.DB, users []models.User, n int) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}

	count := 0
	for i := 0; i < n; i++ {
		sender := users[rand.Intn(len(users))]
		recipient := users[rand.Intn(len(users))]
		if sender.ID == recipient.ID {
			continue
		}
		msg := models.Message{
			SenderID:    sender.ID,
			RecipientID: recipient.ID,
			Body:        gofakeit.Sentence(gofakeit.Number(3, 12)),
			Timestamp:   time.Now().UTC().Add(-time.Duration(rand.Intn(7*24)) * time.Hour),
		}
		if err := db.Create(&msg).Error; err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
