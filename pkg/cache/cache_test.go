package cache

import (
	"context"
	"testing"
	"time"
)

func TestGoCache(t *testing.T) {
	c := NewGoCache(LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	})
	defer c.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		got, ok := c.Get(ctx, "k")
		if !ok {
			t.Fatal("Cache value not found")
		}
		if string(got) != "v" {
			t.Errorf("Expected v, got %s", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if _, ok := c.Get(ctx, "gone"); ok {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		_ = c.Set(ctx, "short", []byte("x"), 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		if _, ok := c.Get(ctx, "short"); ok {
			t.Error("Expected key to expire")
		}
	})

	t.Run("Factory default", func(t *testing.T) {
		cc, err := NewCache(Config{})
		if err != nil {
			t.Fatalf("Factory failed: %v", err)
		}
		defer cc.Close()
		if _, ok := cc.(*GoCache); !ok {
			t.Errorf("Expected local cache by default, got %T", cc)
		}
	})
}
