package service

import (
	"context"
	"testing"

	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupNewsletterServiceTest(t *testing.T) (*NewsletterService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.NewsletterSubscriber{}); err != nil {
		t.Fatalf("migrate subscriber failed: %v", err)
	}
	return NewNewsletterService(repository.NewSubscriberRepository(db), 0), db
}

func TestNewsletterSubscribeIdempotent(t *testing.T) {
	svc, db := setupNewsletterServiceTest(t)
	ctx := context.Background()

	if err := svc.Subscribe(ctx, "sess-1", "Reader@Example.COM"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := svc.Subscribe(ctx, "sess-2", "reader@example.com"); err != nil {
		t.Fatalf("repeat subscribe failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.NewsletterSubscriber{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("subscriber count want 1 got %d", count)
	}

	var subscriber models.NewsletterSubscriber
	if err := db.First(&subscriber).Error; err != nil {
		t.Fatalf("load subscriber failed: %v", err)
	}
	if subscriber.Email != "reader@example.com" {
		t.Fatalf("email want lowercased got %q", subscriber.Email)
	}
}

func TestNewsletterSubscribeInvalidEmail(t *testing.T) {
	svc, _ := setupNewsletterServiceTest(t)
	ctx := context.Background()

	for _, email := range []string{"", "not-an-email", "a@"} {
		if err := svc.Subscribe(ctx, "sess-1", email); err != ErrEmailInvalid {
			t.Fatalf("email %q want ErrEmailInvalid got %v", email, err)
		}
	}
}
