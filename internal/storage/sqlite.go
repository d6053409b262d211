package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"billreminder/internal/core"
	"billreminder/internal/log"
)

const billColumns = `id, owner_id, title, amount_cents, currency, due_date, category, status`

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) BillsByOwner(ctx context.Context, ownerID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE owner_id = ? ORDER BY due_date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	bills := []core.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

func (r *SQLiteRepository) BillByOwnerAndID(ctx context.Context, ownerID string, id int64) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE owner_id = ? AND id = ?`, ownerID, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	return b, err
}

func (r *SQLiteRepository) Insert(ctx context.Context, b core.Bill) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (owner_id, title, amount_cents, currency, due_date, category, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.Title, core.Cents(b.Amount), b.Currency, b.DueDate.String(), b.Category, int(b.Status))
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Bill{}, fmt.Errorf("read inserted id: %w", err)
	}
	b.ID = id

	r.logger.InfoContext(ctx, "Bill saved to SQLite",
		log.NewFields().
			WithOwner(b.OwnerID).
			WithBill(b.ID, b.Title, core.FormatAmount(b.Amount), b.Currency, b.Category, b.DueDate.String()).
			ToSlice()...)
	return b, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, b core.Bill) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills
		 SET title = ?, amount_cents = ?, currency = ?, due_date = ?, category = ?, status = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE owner_id = ? AND id = ?`,
		b.Title, core.Cents(b.Amount), b.Currency, b.DueDate.String(), b.Category, int(b.Status),
		b.OwnerID, b.ID)
	if err != nil {
		return fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(s scanner) (core.Bill, error) {
	var (
		b       core.Bill
		cents   int64
		dueDate string
		status  int
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Title, &cents, &b.Currency, &dueDate, &b.Category, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bill{}, err
		}
		return core.Bill{}, fmt.Errorf("scan bill: %w", err)
	}

	due, err := core.ParseDate(dueDate)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %d has malformed due date %q: %w", b.ID, dueDate, err)
	}
	b.DueDate = due
	b.Amount = core.AmountFromCents(cents)
	b.Status = core.Status(status)
	return b, nil
}
