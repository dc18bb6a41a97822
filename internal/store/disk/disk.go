// Package disk stores budget documents as JSON files through diskv.
//
// Keys look like "month/<user>/2025-01", "account/<user>/<id>" and
// "tx/<user>/<id>"; each path segment becomes a directory.
package disk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"budgeteer/internal/store"
)

const (
	kindMonth   = "month"
	kindAccount = "account"
	kindTx      = "tx"
)

// Store keeps every record as one JSON file under a diskv base directory.
type Store struct {
	d *diskv.Diskv
}

// New opens a store rooted at basePath. cacheSize bounds diskv's read
// cache in bytes.
func New(basePath string, cacheSize uint64) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      cacheSize,
	})}
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + ".json",
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	name := strings.TrimSuffix(pathKey.FileName, ".json")
	return strings.Join(append(append([]string(nil), pathKey.Path...), name), "/")
}

// segment makes an arbitrary ID safe as a path segment.
func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func key(kind, userID, id string) string {
	return kind + "/" + segment(userID) + "/" + segment(id)
}

func prefix(kind, userID string) string {
	return kind + "/" + segment(userID) + "/"
}

func (s *Store) write(k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return s.d.Write(k, data)
}

func (s *Store) read(k string, v any) error {
	data, err := s.d.Read(k)
	if errors.Is(err, fs.ErrNotExist) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}

func (s *Store) erase(k string) error {
	if err := s.d.Erase(k); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) keys(ctx context.Context, p string) []string {
	var out []string
	for k := range s.d.KeysPrefix(p, ctx.Done()) {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Store) LoadMonth(_ context.Context, userID, month string) (store.MonthDocument, error) {
	var doc store.MonthDocument
	if err := s.read(key(kindMonth, userID, month), &doc); err != nil {
		return store.MonthDocument{}, fmt.Errorf("month %s: %w", month, err)
	}
	return doc, nil
}

func (s *Store) LoadMonths(ctx context.Context, userID string) ([]store.MonthDocument, error) {
	var out []store.MonthDocument
	for _, k := range s.keys(ctx, prefix(kindMonth, userID)) {
		var doc store.MonthDocument
		if err := s.read(k, &doc); err != nil {
			return nil, fmt.Errorf("month %s: %w", k, err)
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, ctx.Err()
}

func (s *Store) UpsertMonth(_ context.Context, doc store.MonthDocument) error {
	return s.write(key(kindMonth, doc.UserID, doc.Month), doc)
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]store.AccountRecord, error) {
	var out []store.AccountRecord
	for _, k := range s.keys(ctx, prefix(kindAccount, userID)) {
		var rec store.AccountRecord
		if err := s.read(k, &rec); err != nil {
			return nil, fmt.Errorf("account %s: %w", k, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, ctx.Err()
}

func (s *Store) UpsertAccount(_ context.Context, rec store.AccountRecord) error {
	return s.write(key(kindAccount, rec.UserID, rec.ID), rec)
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	return s.erase(key(kindAccount, userID, id))
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]store.TransactionRecord, error) {
	var out []store.TransactionRecord
	for _, k := range s.keys(ctx, prefix(kindTx, userID)) {
		var rec store.TransactionRecord
		if err := s.read(k, &rec); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", k, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, ctx.Err()
}

func (s *Store) UpsertTransaction(_ context.Context, rec store.TransactionRecord) error {
	return s.write(key(kindTx, rec.UserID, rec.ID), rec)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	return s.erase(key(kindTx, userID, id))
}

func (s *Store) Close() error { return nil }

var _ store.Backend = (*Store)(nil)
