package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"btc-metrics/internal/domain"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS metrics (
		id BIGSERIAL PRIMARY KEY,
		mempool_size TEXT,
		block_height TEXT,
		total_circulating_bitcoin TEXT,
		market_price TEXT,
		average_block_size TEXT,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

type PostgresStore struct {
	pool *pgxpool.Pool
	dsn  string

	mu          sync.Mutex
	schemaReady bool
}

func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{dsn: dsn}
}

func (s *PostgresStore) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	s.pool = pool
	return nil
}

// ensureSchema must be called with s.mu held.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s.schemaReady {
		return nil
	}
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, snapshot domain.Snapshot) (domain.ObservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSchema(ctx); err != nil {
		return domain.ObservationRecord{}, err
	}

	record := domain.ObservationRecord{Snapshot: snapshot}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO metrics(mempool_size, block_height, total_circulating_bitcoin, market_price, average_block_size)
		VALUES($1, $2, $3, $4, $5) RETURNING id, timestamp`,
		snapshot.MempoolSize,
		snapshot.BlockHeight,
		snapshot.TotalCirculatingBitcoin,
		snapshot.MarketPrice,
		snapshot.AverageBlockSize,
	).Scan(&record.ID, &record.Timestamp)
	if err != nil {
		return domain.ObservationRecord{}, fmt.Errorf("error inserting observation: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) GetObservations(ctx context.Context, limit, offset int) ([]domain.ObservationRecord, error) {
	s.mu.Lock()
	err := s.ensureSchema(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// LIMIT NULL means no limit
	var lim any
	if limit > 0 {
		lim = limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `SELECT id, mempool_size, block_height, total_circulating_bitcoin, market_price, average_block_size, timestamp
		FROM metrics ORDER BY id ASC LIMIT $1 OFFSET $2`, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var records []domain.ObservationRecord
	for rows.Next() {
		var r domain.ObservationRecord
		if err := rows.Scan(&r.ID,
			&r.Snapshot.MempoolSize,
			&r.Snapshot.BlockHeight,
			&r.Snapshot.TotalCirculatingBitcoin,
			&r.Snapshot.MarketPrice,
			&r.Snapshot.AverageBlockSize,
			&r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
