package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/leads-import-worker/internal/app"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
)

func main() {
	requeue := flag.Bool("requeue", false, "move a failed job back to pending before running it")
	timeout := flag.Duration("timeout", 30*time.Minute, "upper bound for the whole run")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: runimport [-requeue] [-timeout d] <job-id-uuid>")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if v := common.NewValidator().Field("job_id", flag.Arg(0), common.Required, common.UUID); v.HasErrors() {
		logger.Error("invalid job id", "error", v.ErrorMessage())
		os.Exit(2)
	}
	jobID := uuid.MustParse(flag.Arg(0))
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if *requeue {
		if err := a.Jobs.Requeue(ctx, jobID); err != nil {
			logger.Error("requeue failed", "job_id", jobID, "error", err)
			os.Exit(1)
		}
	}

	job, err := a.Jobs.ClaimByID(ctx, jobID)
	if err != nil {
		logger.Error("claim failed", "job_id", jobID, "error", err)
		os.Exit(1)
	}

	start := time.Now()
	err = a.Processor().ProcessJob(ctx, job)
	dur := time.Since(start)
	if err != nil {
		logger.Error("import failed", "job_id", jobID, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	logger.Info("import OK", "job_id", jobID, "file_path", job.FilePath, "duration_ms", dur.Milliseconds())
}
