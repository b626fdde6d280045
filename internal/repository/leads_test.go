package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
)

type recordingExecer struct {
	sql  string
	args []any
	err  error
}

func (e *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.NewCommandTag("SELECT 1"), e.err
}

func TestLeadWriter_BulkInsert(t *testing.T) {
	adID := "ad-1"
	ts := "2024-01-15T10:30:00.000Z"
	batch := []entity.Lead{
		{ImportJobID: "job", FullName: "Ada", Email: "ada@example.com", AdID: &adID, TimestampUTC: &ts},
		{ImportJobID: "job", FullName: "Bob"},
	}
	ex := &recordingExecer{}

	require.NoError(t, NewLeadWriter(ex, nil).BulkInsert(context.Background(), batch))

	assert.Equal(t, bulkInsertLeadsSQL, ex.sql)
	require.Len(t, ex.args, 1)
	payload, ok := ex.args[0].(string)
	require.True(t, ok)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Ada", decoded[0]["full_name"])
	assert.Equal(t, "ad-1", decoded[0]["ad_id"])
	assert.Equal(t, ts, decoded[0]["timestamp_utc"])

	v, present := decoded[1]["ad_id"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, "", decoded[1]["city"])
}

func TestLeadWriter_StoreError(t *testing.T) {
	storeErr := errors.New(`null value in column "email" violates not-null constraint`)
	ex := &recordingExecer{err: storeErr}

	err := NewLeadWriter(ex, nil).BulkInsert(context.Background(), []entity.Lead{{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Contains(t, err.Error(), "violates not-null constraint")
}

func TestEncodeBatch_Empty(t *testing.T) {
	s, err := encodeBatch(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}
