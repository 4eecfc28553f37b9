package main

import (
	"context"
	"log"

	"github.com/adi29tyax/omniai-hub-backend/internal/platform"
	"github.com/adi29tyax/omniai-hub-backend/render"
	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/store"
	"github.com/adi29tyax/omniai-hub-backend/tasks"
	"github.com/adi29tyax/omniai-hub-backend/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	st := store.New(db)
	uploader := storage.NewClient(platform.NewObjectStorage())
	driver := render.NewDriver(uploader)

	processor := worker.NewProcessor(st, rdb, driver)
	processor.Register(tasks.QueueRender, processor.HandleRender)

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx, tasks.QueueRender)
}
