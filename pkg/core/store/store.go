// Package store persists computed deal-run results, keyed by run ID, into
// a Postgres table. This is an external collaborator's interface shape —
// the orchestrator never calls it directly; a caller that wants a record
// kept around wires this in after the fact.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// InitDB lazily creates the connection pool on first use. Safe to call
// repeatedly; only the first call's dsn takes effect.
func InitDB(ctx context.Context, dsn string) error {
	poolOnce.Do(func() {
		pool, poolErr = pgxpool.New(ctx, dsn)
	})
	return poolErr
}

// GetPool returns the initialized pool, or nil if InitDB hasn't succeeded.
func GetPool() *pgxpool.Pool { return pool }

// Close releases the pool's connections.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// Repo upserts deal-run records into a JSONB column keyed by run ID.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo wraps the process-wide pool. Call InitDB first.
func NewRepo() *Repo {
	return &Repo{pool: pool}
}

const upsertSQL = `
INSERT INTO deal_runs (run_id, kind, payload)
VALUES ($1, $2, $3)
ON CONFLICT (run_id) DO UPDATE SET kind = EXCLUDED.kind, payload = EXCLUDED.payload
`

// Save upserts a recommendation or viability result, JSON-encoded, keyed
// by runID. kind distinguishes "recommendation" from "viability" records.
func (r *Repo) Save(ctx context.Context, runID, kind string, result interface{}) error {
	if r.pool == nil {
		return fmt.Errorf("store: pool not initialized, call InitDB first")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling deal run %s: %w", runID, err)
	}
	if _, err := r.pool.Exec(ctx, upsertSQL, runID, kind, payload); err != nil {
		return fmt.Errorf("saving deal run %s: %w", runID, err)
	}
	return nil
}

const fetchSQL = `SELECT payload FROM deal_runs WHERE run_id = $1`

// Load fetches a previously saved record's raw JSON payload by run ID.
func (r *Repo) Load(ctx context.Context, runID string) ([]byte, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("store: pool not initialized, call InitDB first")
	}
	var payload []byte
	if err := r.pool.QueryRow(ctx, fetchSQL, runID).Scan(&payload); err != nil {
		return nil, fmt.Errorf("loading deal run %s: %w", runID, err)
	}
	return payload, nil
}
