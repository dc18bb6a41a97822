package store

import "context"

// Batch is every write of one commit for a single user. Both legs of a
// mirrored transfer always travel in the same Batch.
type Batch struct {
	UserID              string
	Months              []MonthDocument
	Accounts            []AccountRecord
	RemovedAccounts     []string
	Transactions        []TransactionRecord
	RemovedTransactions []string
}

// Empty reports whether the batch writes nothing.
func (b Batch) Empty() bool {
	return len(b.Months) == 0 && len(b.Accounts) == 0 && len(b.RemovedAccounts) == 0 &&
		len(b.Transactions) == 0 && len(b.RemovedTransactions) == 0
}

// BatchWriter is implemented by backends that apply a Batch all or nothing.
type BatchWriter interface {
	WriteBatch(ctx context.Context, b Batch) error
}

// WriteEach applies b one record at a time through the plain ports, in
// order. It stops at the first error; what was written stays written.
func WriteEach(ctx context.Context, w Backend, b Batch) error {
	for _, rec := range b.Transactions {
		if err := w.UpsertTransaction(ctx, rec); err != nil {
			return err
		}
	}
	for _, id := range b.RemovedTransactions {
		if err := w.DeleteTransaction(ctx, b.UserID, id); err != nil {
			return err
		}
	}
	for _, doc := range b.Months {
		if err := w.UpsertMonth(ctx, doc); err != nil {
			return err
		}
	}
	for _, rec := range b.Accounts {
		if err := w.UpsertAccount(ctx, rec); err != nil {
			return err
		}
	}
	for _, id := range b.RemovedAccounts {
		if err := w.DeleteAccount(ctx, b.UserID, id); err != nil {
			return err
		}
	}
	return nil
}
