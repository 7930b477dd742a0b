package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"btc-metrics/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mempool_size TEXT,
		block_height TEXT,
		total_circulating_bitcoin TEXT,
		market_price TEXT,
		average_block_size TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

// SQLiteStore is an append-only observation log. Appends are serialized and the
// table is created on first use.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	mu          sync.Mutex
	schemaReady bool
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path}
}

func (s *SQLiteStore) Init() error {
	var err error

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", s.dbPath)
	s.db, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	s.db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

// ensureSchema must be called with s.mu held.
func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, snapshot domain.Snapshot) (domain.ObservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSchema(ctx); err != nil {
		return domain.ObservationRecord{}, err
	}

	stmt, err := s.db.PrepareContext(ctx, `INSERT INTO metrics(mempool_size, block_height, total_circulating_bitcoin, market_price, average_block_size) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return domain.ObservationRecord{}, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx,
		snapshot.MempoolSize,
		snapshot.BlockHeight,
		snapshot.TotalCirculatingBitcoin,
		snapshot.MarketPrice,
		snapshot.AverageBlockSize,
	)
	if err != nil {
		return domain.ObservationRecord{}, fmt.Errorf("error inserting observation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.ObservationRecord{}, fmt.Errorf("error reading inserted id: %w", err)
	}

	record := domain.ObservationRecord{ID: id, Snapshot: snapshot}
	if err := s.db.QueryRowContext(ctx, "SELECT timestamp FROM metrics WHERE id = ?", id).Scan(&record.Timestamp); err != nil {
		return domain.ObservationRecord{}, fmt.Errorf("error reading inserted timestamp: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) GetObservations(ctx context.Context, limit, offset int) ([]domain.ObservationRecord, error) {
	s.mu.Lock()
	err := s.ensureSchema(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, mempool_size, block_height, total_circulating_bitcoin, market_price, average_block_size, timestamp
		FROM metrics ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset)
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

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
