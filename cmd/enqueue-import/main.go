package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joseph-ayodele/leads-import-worker/constants"
	"github.com/joseph-ayodele/leads-import-worker/internal/app"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	repo "github.com/joseph-ayodele/leads-import-worker/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)

	if len(os.Args) != 2 || strings.TrimSpace(os.Args[1]) == "" {
		logger.Error("usage", "cmd", "enqueue-import <file-path-in-bucket>")
		os.Exit(2)
	}
	path := strings.TrimSpace(os.Args[1])
	if constants.MapPathToFormat(path) == "" {
		logger.Error("unsupported file type", "file_path", path, "allowed", constants.FileTypes)
		os.Exit(2)
	}
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	drv, pool, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repo.Close(drv, pool, logger)

	job, err := repo.NewImportJobRepository(drv, logger).Create(ctx, path)
	if err != nil {
		logger.Error("enqueue failed", "file_path", path, "error", err)
		os.Exit(1)
	}
	fmt.Println(job.ID)
}
