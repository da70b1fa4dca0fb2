package main

import (
	"Go_Share/config"
	"Go_Share/internal/chunk"
	"Go_Share/internal/handler"
	"Go_Share/internal/notify"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"Go_Share/internal/storage"
	"Go_Share/internal/task"
	"Go_Share/router"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitStore()

	cfg := config.AppConfig
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assembler, err := chunk.NewAssembler(cfg.Chunks.TempDir, nil)
	if err != nil {
		log.Fatalf("init chunk assembler failed: %v", err)
	}
	meta := repo.NewMetadataStore(repo.Db)
	tasks := repo.NewTaskStore(repo.Db)
	finalizer := service.NewFinalizer(cfg, meta, storage.Default,
		service.WithNotifier(notify.FromConfig(cfg.Notify)),
	)
	processor := task.NewProcessor(tasks, assembler, finalizer, cfg.Finalize)

	var dispatcher task.Dispatcher
	switch cfg.Finalize.Mode {
	case "mq":
		dispatcher = task.MQDispatcher{}
		log.Println("finalize mode: mq, run cmd/worker with the same CHUNKS_TEMP_DIR")
	default:
		pool := task.NewLocalPool(processor, cfg.Finalize)
		pool.Start(ctx)
		defer pool.Wait()
		dispatcher = pool
		log.Printf("finalize mode: local, %d workers", cfg.Finalize.Concurrency)
	}

	go runJanitor(ctx, assembler, cfg.Chunks)

	upload := &handler.UploadHandler{
		Finalizer: finalizer,
		Limiter:   service.NewRateLimiter(repo.NewRatelimitStore(repo.Redis), cfg.Uploader, nil),
		Assembler: assembler,
		Queue:     task.NewQueue(tasks, dispatcher, processor),
		NewLock: func(key string) handler.Locker {
			return repo.NewRedisLock(repo.Redis, key, 5*time.Minute)
		},
		Uploader: cfg.Uploader,
		Chunks:   cfg.Chunks,
	}
	users := repo.NewCachedUsers(meta, repo.Redis, time.Minute)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.InitRouter(upload, users),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server stopped: %v", err)
	}
}

// runJanitor removes chunk sessions that stopped receiving data.
func runJanitor(ctx context.Context, assembler *chunk.Assembler, cfg config.ChunksConfig) {
	every := cfg.SweepEvery
	if every <= 0 {
		every = 10 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := assembler.Sweep(cfg.Staleness)
			if err != nil {
				log.Printf("chunk sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("chunk sweep removed %d stale files", n)
			}
		}
	}
}
