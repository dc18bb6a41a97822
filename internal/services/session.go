// Package services connects the budget engine to persistence and events.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/amqp"
	"budgeteer/internal/budget"
	"budgeteer/internal/history"
	"budgeteer/internal/log"
	"budgeteer/internal/store"
)

// persistConcurrency bounds the concurrent writes of one commit.
const persistConcurrency = 8

// Publisher announces persisted changes. *amqp.Client implements it.
type Publisher interface {
	PublishMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error
}

// Session is one user's editing session: an engine hydrated from the
// store, its undo history, and the write-back of every command.
type Session struct {
	store     store.Backend
	userID    string
	engine    *budget.Engine
	publisher Publisher
	logger    *log.Logger
	warnOnce  sync.Once
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	publisher Publisher
	logger    *log.Logger
	engine    []budget.Option
}

// WithPublisher enables month-changed events.
func WithPublisher(p Publisher) SessionOption {
	return func(o *sessionOptions) { o.publisher = p }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = l }
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...budget.Option) SessionOption {
	return func(o *sessionOptions) { o.engine = append(o.engine, opts...) }
}

type snapshot struct {
	months   []store.MonthDocument
	accounts []store.AccountRecord
	txns     []store.TransactionRecord
}

func load(ctx context.Context, b store.Backend, userID string) (snapshot, error) {
	var s snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.months, err = b.LoadMonths(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.accounts, err = b.ListAccounts(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.txns, err = b.ListTransactions(ctx, userID)
		return err
	})
	return s, g.Wait()
}

// Open loads the user's budget and returns a session with an empty history.
func Open(ctx context.Context, b store.Backend, userID string, opts ...SessionOption) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard(log.ComponentSession)
	}
	logger := o.logger.WithComponent(log.ComponentSession)

	snap, err := load(ctx, b, userID)
	if err != nil {
		return nil, fmt.Errorf("load budget of %s: %w", userID, err)
	}
	ledger, err := budget.Restore(snap.months, snap.accounts, snap.txns)
	if err != nil {
		return nil, fmt.Errorf("restore budget of %s: %w", userID, err)
	}

	engineOpts := append([]budget.Option{budget.WithLogger(o.logger)}, o.engine...)
	s := &Session{
		store:     b,
		userID:    userID,
		engine:    budget.NewEngine(ledger, history.New[budget.Op](), engineOpts...),
		publisher: o.publisher,
		logger:    logger,
	}
	logger.DebugContext(ctx, "Session opened",
		log.FieldUserID, userID,
		log.FieldMonths, len(snap.months),
		log.FieldCount, len(snap.txns))
	return s, nil
}

// Engine returns the session's engine.
func (s *Session) Engine() *budget.Engine { return s.engine }

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Do runs fn against the engine and commits whatever it changed, including
// months materialised by reads. kind names the command in events.
func (s *Session) Do(ctx context.Context, kind string, fn func(*budget.Engine) error) error {
	opErr := fn(s.engine)
	if err := s.Commit(ctx, kind); err != nil {
		return errors.Join(opErr, err)
	}
	return opErr
}

// Commit writes every record changed since the last commit. On failure the
// changes stay queued for the next commit.
func (s *Session) Commit(ctx context.Context, kind string) error {
	changes := s.engine.Changes()
	if changes.Empty() {
		return nil
	}
	x := s.engine.Export(s.userID, changes)

	if err := s.persist(ctx, x); err != nil {
		s.engine.Requeue(changes)
		s.logger.ErrorContext(ctx, "Failed to persist changes",
			log.FieldOperation, kind,
			log.FieldUserID, s.userID,
			log.FieldError, err)
		return fmt.Errorf("persist %s: %w", kind, err)
	}

	months := make([]string, 0, len(x.Months))
	for _, doc := range x.Months {
		months = append(months, doc.Month)
	}
	s.logger.DebugContext(ctx, "Changes persisted",
		log.FieldOperation, kind,
		log.FieldMonths, months,
		log.FieldCount, len(x.Transactions)+len(x.RemovedTransactions))

	s.publish(ctx, kind, months)
	return nil
}

// persist writes x in one batch when the backend supports it. Otherwise
// records go out concurrently, with the legs of each mirrored pair written
// together by one goroutine.
func (s *Session) persist(ctx context.Context, x budget.Export) error {
	batch := x.Batch(s.userID)
	if bw, ok := s.store.(store.BatchWriter); ok {
		return bw.WriteBatch(ctx, batch)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(persistConcurrency)

	for _, doc := range batch.Months {
		doc := doc
		g.Go(func() error { return s.store.UpsertMonth(ctx, doc) })
	}
	for _, rec := range batch.Accounts {
		rec := rec
		g.Go(func() error { return s.store.UpsertAccount(ctx, rec) })
	}
	for _, id := range batch.RemovedAccounts {
		id := id
		g.Go(func() error { return s.store.DeleteAccount(ctx, s.userID, id) })
	}
	for _, legs := range pairLegs(batch.Transactions) {
		legs := legs
		g.Go(func() error {
			for _, rec := range legs {
				if err := s.store.UpsertTransaction(ctx, rec); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if len(batch.RemovedTransactions) > 0 {
		g.Go(func() error {
			for _, id := range batch.RemovedTransactions {
				if err := s.store.DeleteTransaction(ctx, s.userID, id); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// pairLegs groups records so that both legs of a mirrored pair land in the
// same group. Unmirrored records get a group of their own.
func pairLegs(recs []store.TransactionRecord) [][]store.TransactionRecord {
	var out [][]store.TransactionRecord
	byMirror := make(map[string]int)
	for _, rec := range recs {
		if rec.MirrorID == "" {
			out = append(out, []store.TransactionRecord{rec})
			continue
		}
		if i, ok := byMirror[rec.MirrorID]; ok {
			out[i] = append(out[i], rec)
			continue
		}
		byMirror[rec.MirrorID] = len(out)
		out = append(out, []store.TransactionRecord{rec})
	}
	return out
}

// publish is best effort: the change is already persisted.
func (s *Session) publish(ctx context.Context, kind string, months []string) {
	if len(months) == 0 {
		return
	}
	if s.publisher == nil {
		s.warnOnce.Do(func() {
			s.logger.WarnContext(ctx, "AMQP not configured, skipping month changed events")
		})
		return
	}
	msg := amqp.NewMonthChangedMessage(s.userID, months, kind)
	if err := s.publisher.PublishMonthChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish month changed message",
			log.FieldOperation, log.OpPublish,
			log.FieldMonths, months,
			log.FieldError, err)
	}
}
