package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"flowbridge/internal/domain"
)

// SQLiteStore implements domain.OrderStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id                   TEXT PRIMARY KEY,
		phone_number         TEXT NOT NULL,
		number_of_pads       INTEGER NOT NULL,
		delivery_address     TEXT NOT NULL,
		special_instructions TEXT,
		status               TEXT NOT NULL DEFAULT 'Pending',
		created_at           DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_orders_phone ON orders(phone_number, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateOrder inserts one order inside a transaction. Either the full record
// lands or the transaction is rolled back; no partial writes.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}

	instructions := sql.NullString{}
	if order.SpecialInstructions != nil && *order.SpecialInstructions != "" {
		instructions = sql.NullString{String: *order.SpecialInstructions, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, phone_number, number_of_pads, delivery_address, special_instructions, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.PhoneNumber, order.NumberOfPads, order.DeliveryAddress,
		instructions, order.Status, order.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	var instructions sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, number_of_pads, delivery_address, special_instructions, status, created_at
		 FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.PhoneNumber, &order.NumberOfPads, &order.DeliveryAddress,
		&instructions, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if instructions.Valid {
		order.SpecialInstructions = &instructions.String
	}
	return &order, nil
}

func (s *SQLiteStore) ListOrderIDsByPhone(ctx context.Context, phoneNumber string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM orders WHERE phone_number = ? ORDER BY created_at`, phoneNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders by phone: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
