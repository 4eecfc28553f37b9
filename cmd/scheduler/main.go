package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adi29tyax/omniai-hub-backend/internal/platform"
	"github.com/adi29tyax/omniai-hub-backend/tasks"
	"github.com/adi29tyax/omniai-hub-backend/usage"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	usageService := usage.NewService(db)

	c := cron.New()

	// Quota counters roll over at midnight UTC. Ensure() also resets
	// lazily on first touch, so this sweep just keeps idle rows tidy.
	if _, err := c.AddFunc("5 0 * * *", func() {
		n, err := usageService.ResetStale(ctx)
		if err != nil {
			log.Printf("Error resetting usage counters: %v", err)
			return
		}
		log.Printf("Reset usage counters for %d users", n)
	}); err != nil {
		log.Fatal("Failed to schedule usage reset:", err)
	}

	// A crashed worker can leave its render scratch dir behind. Sweep
	// anything older than an hour; live renders never run that long.
	if _, err := c.AddFunc("@hourly", func() {
		n, err := sweepScratchDirs(time.Hour)
		if err != nil {
			log.Printf("Error sweeping scratch dirs: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Removed %d orphaned scratch dirs", n)
		}
	}); err != nil {
		log.Fatal("Failed to schedule scratch sweep:", err)
	}

	// Queue depth heartbeat for operators.
	if _, err := c.AddFunc("@every 1m", func() {
		depth, err := rdb.LLen(ctx, tasks.QueueRender).Result()
		if err != nil {
			log.Printf("Error reading render queue depth: %v", err)
			return
		}
		if depth > 0 {
			log.Printf("Render queue depth: %d", depth)
		}
	}); err != nil {
		log.Fatal("Failed to schedule queue monitor:", err)
	}

	c.Start()
	defer c.Stop()

	log.Println("Scheduler started")
	// Keep the main thread alive
	select {}
}

func sweepScratchDirs(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-olderThan)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "omniai-render-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(os.TempDir(), e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Error removing %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
