// Package storage is the SQLite document backend.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores budget documents in a SQLite database
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dbPath, creating it and applying migrations as needed
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// LoadMonth implements store.MonthStore
func (r *SQLiteRepository) LoadMonth(ctx context.Context, userID, month string) (store.MonthDocument, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, month, data, assignable_money, ready_to_assign, updated_at
		FROM months WHERE user_id = ? AND month = ?`, userID, month)
	doc, err := scanMonth(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.MonthDocument{}, fmt.Errorf("month %s: %w", month, store.ErrNotFound)
	}
	if err != nil {
		return store.MonthDocument{}, fmt.Errorf("load month %s: %w", month, err)
	}
	return doc, nil
}

// LoadMonths implements store.MonthStore
func (r *SQLiteRepository) LoadMonths(ctx context.Context, userID string) ([]store.MonthDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, month, data, assignable_money, ready_to_assign, updated_at
		FROM months WHERE user_id = ? ORDER BY month`, userID)
	if err != nil {
		return nil, fmt.Errorf("load months: %w", err)
	}
	defer rows.Close()

	var out []store.MonthDocument
	for rows.Next() {
		doc, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMonth(s scanner) (store.MonthDocument, error) {
	var (
		doc                 store.MonthDocument
		data, updated       string
		assignable, readyTo int64
	)
	if err := s.Scan(&doc.UserID, &doc.Month, &data, &assignable, &readyTo, &updated); err != nil {
		return store.MonthDocument{}, err
	}
	if err := json.Unmarshal([]byte(data), &doc.Data); err != nil {
		return store.MonthDocument{}, fmt.Errorf("decode categories of %s: %w", doc.Month, err)
	}
	t, err := parseTime(updated)
	if err != nil {
		return store.MonthDocument{}, err
	}
	doc.UpdatedAt = t
	doc.AssignableMoney = core.Cents(assignable)
	doc.ReadyToAssign = core.Cents(readyTo)
	return doc, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertMonth implements store.MonthStore
func (r *SQLiteRepository) UpsertMonth(ctx context.Context, doc store.MonthDocument) error {
	return upsertMonth(ctx, r.db, doc)
}

func upsertMonth(ctx context.Context, ex execer, doc store.MonthDocument) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode categories of %s: %w", doc.Month, err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO months (user_id, month, data, assignable_money, ready_to_assign, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month) DO UPDATE SET
			data = excluded.data,
			assignable_money = excluded.assignable_money,
			ready_to_assign = excluded.ready_to_assign,
			updated_at = excluded.updated_at`,
		doc.UserID, doc.Month, string(data), doc.AssignableMoney.Cents, doc.ReadyToAssign.Cents, formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert month %s: %w", doc.Month, err)
	}

	slog.DebugContext(ctx, "Month saved to SQLite",
		"user_id", doc.UserID,
		"month", doc.Month,
		"ready_to_assign", doc.ReadyToAssign.Cents)
	return nil
}

// ListAccounts implements store.AccountStore
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]store.AccountRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, issuer, type, balance, created_at
		FROM accounts WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []store.AccountRecord
	for rows.Next() {
		var (
			rec     store.AccountRecord
			balance int64
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Issuer, &rec.Type, &balance, &created); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("account %s created_at: %w", rec.ID, err)
		}
		rec.Balance = core.Cents(balance)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertAccount implements store.AccountStore
func (r *SQLiteRepository) UpsertAccount(ctx context.Context, rec store.AccountRecord) error {
	return upsertAccount(ctx, r.db, rec)
}

func upsertAccount(ctx context.Context, ex execer, rec store.AccountRecord) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, issuer, type, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			issuer = excluded.issuer,
			type = excluded.type,
			balance = excluded.balance`,
		rec.ID, rec.UserID, rec.Name, rec.Issuer, rec.Type, rec.Balance.Cents, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteAccount implements store.AccountStore
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	return deleteAccount(ctx, r.db, userID, id)
}

func deleteAccount(ctx context.Context, ex execer, userID, id string) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

// ListTransactions implements store.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]store.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, date, payee_name, category_group, category_item,
		       amount, kind, mirror_id, memo
		FROM transactions WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []store.TransactionRecord
	for rows.Next() {
		var (
			rec    store.TransactionRecord
			amount int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AccountID, &rec.Date, &rec.Payee,
			&rec.CategoryGroup, &rec.CategoryItem, &amount, &rec.Kind, &rec.MirrorID, &rec.Memo); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.Amount = core.Cents(amount)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertTransaction implements store.TransactionStore
func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, rec store.TransactionRecord) error {
	return upsertTransaction(ctx, r.db, rec)
}

func upsertTransaction(ctx context.Context, ex execer, rec store.TransactionRecord) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, date, payee_name, category_group,
		                          category_item, amount, kind, mirror_id, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			account_id = excluded.account_id,
			date = excluded.date,
			payee_name = excluded.payee_name,
			category_group = excluded.category_group,
			category_item = excluded.category_item,
			amount = excluded.amount,
			kind = excluded.kind,
			mirror_id = excluded.mirror_id,
			memo = excluded.memo`,
		rec.ID, rec.UserID, rec.AccountID, rec.Date, rec.Payee, rec.CategoryGroup,
		rec.CategoryItem, rec.Amount.Cents, rec.Kind, rec.MirrorID, rec.Memo)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteTransaction implements store.TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return deleteTransaction(ctx, r.db, userID, id)
}

func deleteTransaction(ctx context.Context, ex execer, userID, id string) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// WriteBatch applies every write of b in one transaction.
func (r *SQLiteRepository) WriteBatch(ctx context.Context, b store.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range b.Transactions {
		if err := upsertTransaction(ctx, tx, rec); err != nil {
			return err
		}
	}
	for _, id := range b.RemovedTransactions {
		if err := deleteTransaction(ctx, tx, b.UserID, id); err != nil {
			return err
		}
	}
	for _, doc := range b.Months {
		if err := upsertMonth(ctx, tx, doc); err != nil {
			return err
		}
	}
	for _, rec := range b.Accounts {
		if err := upsertAccount(ctx, tx, rec); err != nil {
			return err
		}
	}
	for _, id := range b.RemovedAccounts {
		if err := deleteAccount(ctx, tx, b.UserID, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

var (
	_ store.Backend     = (*SQLiteRepository)(nil)
	_ store.BatchWriter = (*SQLiteRepository)(nil)
)
