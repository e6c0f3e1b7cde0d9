package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Order operations

// CreateOrder inserts a new order record with its lines
func (s *SQLiteStorage) CreateOrder(ctx context.Context, order *types.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = types.StatusNotStarted
	}
	order.Version = 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, external_ref, kind, status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ExternalRef, string(order.Kind), string(order.Status),
		order.Version, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := insertLines(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

// GetOrder loads an order with its lines and scanned tags
func (s *SQLiteStorage) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	var order types.Order
	var kind, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, external_ref, kind, status, version, created_at, updated_at
		FROM orders WHERE id = ?`, orderID).Scan(
		&order.ID, &order.ExternalRef, &kind, &status,
		&order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	order.Kind = types.OrderKind(kind)
	order.Status = types.VerificationStatus(status)

	if err := s.loadLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all orders, newest first
func (s *SQLiteStorage) ListOrders(ctx context.Context) ([]*types.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM orders ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders := make([]*types.Order, 0, len(ids))
	for _, id := range ids {
		order, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// SaveOrder rewrites the whole order record in one transaction. The save is
// rejected with types.ErrConflict when the stored version no longer matches
// order.Version; on success the in-memory version is bumped to match.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, order *types.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET external_ref = ?, kind = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		order.ExternalRef, string(order.Kind), string(order.Status), now,
		order.ID, order.Version)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM orders WHERE id = ?", order.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check order %s: %w", order.ID, err)
		}
		return types.ErrConflict
	}

	// Lines and tags are rewritten wholesale with the order
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM scanned_tags WHERE order_id = ?", order.ID); err != nil {
		return fmt.Errorf("failed to clear scanned tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM order_lines WHERE order_id = ?", order.ID); err != nil {
		return fmt.Errorf("failed to clear order lines: %w", err)
	}
	if err := insertLines(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order %s: %w", order.ID, err)
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, order *types.Order) error {
	lineStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_lines (order_id, id, item_id, target_qty, verified_qty, position)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer lineStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scanned_tags (order_id, line_id, tag_id, position)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for pos, line := range order.Lines {
		if _, err := lineStmt.ExecContext(ctx,
			order.ID, line.ID, line.ItemID, line.TargetQty, line.VerifiedQty, pos); err != nil {
			return fmt.Errorf("failed to insert line %s: %w", line.ID, err)
		}
		for tagPos, tag := range line.ScannedTags {
			if _, err := tagStmt.ExecContext(ctx, order.ID, line.ID, tag, tagPos); err != nil {
				return fmt.Errorf("failed to insert scanned tag %s: %w", tag, err)
			}
		}
	}
	return nil
}

func (s *SQLiteStorage) loadLines(ctx context.Context, order *types.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, target_qty, verified_qty
		FROM order_lines WHERE order_id = ? ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load lines for order %s: %w", order.ID, err)
	}
	defer rows.Close()

	order.Lines = nil
	lineIndex := map[string]*types.OrderLine{}
	for rows.Next() {
		line := &types.OrderLine{}
		if err := rows.Scan(&line.ID, &line.ItemID, &line.TargetQty, &line.VerifiedQty); err != nil {
			return fmt.Errorf("failed to scan line row: %w", err)
		}
		order.Lines = append(order.Lines, line)
		lineIndex[line.ID] = line
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT line_id, tag_id
		FROM scanned_tags WHERE order_id = ? ORDER BY line_id, position`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load scanned tags for order %s: %w", order.ID, err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var lineID, tagID string
		if err := tagRows.Scan(&lineID, &tagID); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		if line, ok := lineIndex[lineID]; ok {
			line.ScannedTags = append(line.ScannedTags, tagID)
		}
	}
	return tagRows.Err()
}

// Submission operations

// AppendSubmission records one submitted verification in the audit trail
func (s *SQLiteStorage) AppendSubmission(ctx context.Context, sub *types.Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_submissions (id, order_id, status, total_target, total_found, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.OrderID, string(sub.Status), sub.TotalTarget, sub.TotalFound,
		time.Unix(sub.SubmittedAt, 0).UTC())
	if err != nil {
		return fmt.Errorf("failed to append submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the audit trail for an order, oldest first
func (s *SQLiteStorage) ListSubmissions(ctx context.Context, orderID string) ([]*types.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, status, total_target, total_found, submitted_at
		FROM verification_submissions WHERE order_id = ? ORDER BY submitted_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*types.Submission
	for rows.Next() {
		sub := &types.Submission{}
		var status string
		var submittedAt time.Time
		if err := rows.Scan(&sub.ID, &sub.OrderID, &status,
			&sub.TotalTarget, &sub.TotalFound, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		sub.Status = types.VerificationStatus(status)
		sub.SubmittedAt = submittedAt.Unix()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Tag assignment operations

// AssignTag binds a tag to an item, replacing any previous binding
func (s *SQLiteStorage) AssignTag(ctx context.Context, tagID, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_assignments (tag_id, item_id) VALUES (?, ?)
		ON CONFLICT(tag_id) DO UPDATE SET item_id = excluded.item_id, assigned_at = CURRENT_TIMESTAMP`,
		tagID, itemID)
	if err != nil {
		return fmt.Errorf("failed to assign tag %s: %w", tagID, err)
	}
	return nil
}

// UnassignTag removes a tag binding
func (s *SQLiteStorage) UnassignTag(ctx context.Context, tagID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tag_assignments WHERE tag_id = ?", tagID)
	if err != nil {
		return fmt.Errorf("failed to unassign tag %s: %w", tagID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveTag returns the item a tag is bound to, or ErrNotFound
func (s *SQLiteStorage) ResolveTag(ctx context.Context, tagID string) (string, error) {
	var itemID string
	err := s.db.QueryRowContext(ctx,
		"SELECT item_id FROM tag_assignments WHERE tag_id = ?", tagID).Scan(&itemID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve tag %s: %w", tagID, err)
	}
	return itemID, nil
}
