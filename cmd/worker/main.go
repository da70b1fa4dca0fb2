package main

import (
	"Go_Share/config"
	"Go_Share/internal/chunk"
	"Go_Share/internal/notify"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"Go_Share/internal/storage"
	"Go_Share/internal/task"
	"Go_Share/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitStore()

	cfg := config.AppConfig
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// chunks are read from the directory the gateway writes to
	assembler, err := chunk.NewAssembler(cfg.Chunks.TempDir, nil)
	if err != nil {
		log.Fatalf("init chunk assembler failed: %v", err)
	}
	finalizer := service.NewFinalizer(cfg, repo.NewMetadataStore(repo.Db), storage.Default,
		service.WithNotifier(notify.FromConfig(cfg.Notify)),
	)
	processor := task.NewProcessor(repo.NewTaskStore(repo.Db), assembler, finalizer, cfg.Finalize)

	log.Println("finalize worker started")
	if err := worker.RunFinalizeWorker(ctx, processor); err != nil {
		log.Fatalf("finalize worker stopped: %v", err)
	}
}
