package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/leads-import-worker/internal/common"
)

func TestDBConfig(t *testing.T) {
	got := DBConfig(common.DatabaseConfig{
		DSN:              "postgres://u:p@localhost:5432/leads",
		MaxConns:         8,
		MinConns:         2,
		MaxConnLifetime:  time.Hour,
		MaxConnIdleTime:  time.Minute,
		DialTimeout:      time.Second,
		StatementTimeout: 30 * time.Second,
	})
	assert.Equal(t, "postgres://u:p@localhost:5432/leads", got.DSN)
	assert.Equal(t, int32(8), got.MaxConns)
	assert.Equal(t, int32(2), got.MinConns)
	assert.Equal(t, time.Hour, got.MaxConnLifetime)
	assert.Equal(t, time.Minute, got.MaxConnIdleTime)
	assert.Equal(t, time.Second, got.DialTimeout)
	assert.Equal(t, 30*time.Second, got.StatementTimeout)
}

func TestProcessorAndScheduler(t *testing.T) {
	cfg := &common.Config{
		Worker:  common.WorkerConfig{Enabled: false, BatchSize: 10, PollInterval: time.Second},
		Storage: common.StorageConfig{Bucket: "uploads"},
	}
	a := &App{Config: cfg, Logger: nil}

	p := a.Processor()
	assert.Equal(t, "uploads", p.Bucket)
	assert.NotNil(t, a.Scheduler("w-1"))
}
