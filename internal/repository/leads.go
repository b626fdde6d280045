package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
)

const bulkInsertLeadsSQL = `SELECT bulk_insert_leads(json_data => $1::jsonb)`

// Execer is the subset of *pgxpool.Pool the lead writer needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// LeadWriter sends one batch per call to the bulk_insert_leads procedure.
type LeadWriter struct {
	db  Execer
	log *slog.Logger
}

func NewLeadWriter(db Execer, log *slog.Logger) *LeadWriter {
	if log == nil {
		log = slog.Default()
	}
	return &LeadWriter{db: db, log: log}
}

func (w *LeadWriter) BulkInsert(ctx context.Context, batch []entity.Lead) error {
	payload, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	if _, err := w.db.Exec(ctx, bulkInsertLeadsSQL, payload); err != nil {
		w.log.Error("bulk_insert_leads failed", "rows", len(batch), "err", err)
		return fmt.Errorf("bulk_insert_leads: %w", err)
	}
	w.log.Debug("bulk_insert_leads ok", "rows", len(batch))
	return nil
}

// encodeBatch renders the batch as the JSON array passed as json_data.
func encodeBatch(batch []entity.Lead) (string, error) {
	if batch == nil {
		batch = []entity.Lead{}
	}
	b, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("encode lead batch: %w", err)
	}
	return string(b), nil
}
