package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// jobName keys the state row so one database can serve several pollers.
const jobName = "s2f"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS run_state (
    job        TEXT PRIMARY KEY,
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps the run state as a single JSONB row, for deployments
// where the scheduler host has no durable disk.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Database connection pool established")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) Load(ctx context.Context) (RunState, bool, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT state FROM run_state WHERE job = $1`, jobName).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		p.logger.Info("No state row, treating as first run")
		return RunState{}, false, nil
	}
	if err != nil {
		return RunState{}, false, fmt.Errorf("failed to load state: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return RunState{}, false, fmt.Errorf("failed to parse state row: %w", err)
	}
	return state, true, nil
}

func (p *PostgresStore) Save(ctx context.Context, state RunState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	upsert := `
		INSERT INTO run_state (job, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (job)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`
	if _, err := p.pool.Exec(ctx, upsert, jobName, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	p.logger.Debug("Saved state", zap.Int("bytes", len(data)))
	return nil
}
