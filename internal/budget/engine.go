package budget

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgeteer/internal/core"
	"budgeteer/internal/history"
	"budgeteer/internal/log"
)

var errNameRequired = errors.New("name is required")

// Engine serialises every operation on one Ledger and records each mutation
// as one undoable command.
type Engine struct {
	mu      sync.Mutex
	ledger  *Ledger
	history *history.Stack[Op]
	logger  *log.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentEngine) }
}

// WithClock sets the clock used for command timestamps and opening balances.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs sets the generator of new group, item, account and transaction IDs.
func WithIDs(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine returns an engine over ledger. The history stack belongs to the
// caller's editing session.
func NewEngine(ledger *Ledger, h *history.Stack[Op], opts ...Option) *Engine {
	e := &Engine{
		ledger:  ledger,
		history: h,
		logger:  log.Discard(log.ComponentEngine),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// execute applies op and records it. Must be called with e.mu held.
func (e *Engine) execute(op Op) error {
	inv, err := op.apply(e.ledger)
	if err != nil {
		if errors.Is(err, core.ErrMirrorIntegrity) {
			e.logger.Error("mirror integrity violated", log.FieldOperation, op.Kind(), log.FieldError, err)
		}
		return err
	}
	e.history.Push(history.Command[Op]{Kind: op.Kind(), Forward: op, Inverse: inv, Timestamp: e.now()})
	e.reportComputeErrors()
	return nil
}

func (e *Engine) reportComputeErrors() {
	for _, m := range e.ledger.Months() {
		if err := e.ledger.months[m].ComputeErr; err != nil {
			e.logger.Warn("ready to assign clamped", log.FieldMonth, m.String(), log.FieldError, err)
		}
	}
}

func (e *Engine) applyOp(op Op) (Op, error) {
	return op.apply(e.ledger)
}

// Undo reverses the most recent command. It reports false when there was
// nothing to undo.
func (e *Engine) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.history.Undo(e.applyOp)
	if errors.Is(err, history.ErrNothingToUndo) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	e.logger.Debug("undo", log.FieldOperation, c.Kind)
	return true, nil
}

// Redo re-applies the most recently undone command. It reports false when
// there was nothing to redo.
func (e *Engine) Redo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.history.Redo(e.applyOp)
	if errors.Is(err, history.ErrNothingToRedo) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	e.logger.Debug("redo", log.FieldOperation, c.Kind)
	return true, nil
}

// CreateGroup adds a group to m and every later month.
func (e *Engine) CreateGroup(m core.Month, name string) (core.GroupID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("group: %w", errNameRequired)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id := core.GroupID(e.newID())
	if err := e.execute(createGroupOp{Month: m, ID: id, Name: name}); err != nil {
		return "", err
	}
	return id, nil
}

// RenameGroup renames a group from m onwards and recategorises its transactions.
func (e *Engine) RenameGroup(m core.Month, id core.GroupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("group: %w", errNameRequired)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(renameGroupOp{Month: m, ID: id, Name: name})
}

// DeleteGroup removes an empty group from m onwards.
func (e *Engine) DeleteGroup(m core.Month, id core.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(deleteGroupOp{Month: m, ID: id})
}

// CreateItem adds an item to a group from m onwards.
func (e *Engine) CreateItem(m core.Month, group core.GroupID, name string) (core.ItemID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("item: %w", errNameRequired)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id := core.ItemID(e.newID())
	if err := e.execute(createItemOp{Month: m, GroupID: group, ID: id, Name: name}); err != nil {
		return "", err
	}
	return id, nil
}

// RenameItem renames an item from m onwards and recategorises its transactions.
func (e *Engine) RenameItem(m core.Month, id core.ItemID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("item: %w", errNameRequired)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(renameItemOp{Month: m, ID: id, Name: name})
}

// DeleteItem removes an item from m onwards. An item with carry, assigned
// money or activity in m or later needs a reassignTo target; without one
// ErrFundsPresent is returned.
func (e *Engine) DeleteItem(m core.Month, id, reassignTo core.ItemID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(deleteItemOp{Month: m, ID: id, Target: reassignTo})
}

// CanDeleteItem reports whether the normal delete path accepts the item.
func (e *Engine) CanDeleteItem(m core.Month, id core.ItemID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ensureMonth(m).CanDelete(id)
}

// SetAssigned sets the money assigned to an item in m.
func (e *Engine) SetAssigned(m core.Month, id core.ItemID, amount core.Money) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(setAssignedOp{Month: m, ItemID: id, Amount: amount})
}

// AssignText assigns the amount typed by a user. Input that does not parse
// assigns zero; the assigned amount is returned.
func (e *Engine) AssignText(m core.Month, id core.ItemID, input string) (core.Money, error) {
	amount := core.AmountOrZero(input)
	return amount, e.SetAssigned(m, id, amount)
}

// MoveAssigned moves budgeted money between two items of the same month.
func (e *Engine) MoveAssigned(m core.Month, from, to core.ItemID, amount core.Money) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	mb := e.ledger.ensureMonth(m)
	src, _ := mb.Item(from)
	dst, _ := mb.Item(to)
	if src == nil || dst == nil {
		return fmt.Errorf("move assigned: %w", core.ErrNotFound)
	}
	srcAmt, err := src.Assigned.CheckedSub(amount)
	if err != nil {
		return err
	}
	dstAmt, err := dst.Assigned.CheckedAdd(amount)
	if err != nil {
		return err
	}
	return e.execute(batchOp{Name: "move-assigned", Ops: []Op{
		setAssignedOp{Month: m, ItemID: from, Amount: srcAmt},
		setAssignedOp{Month: m, ItemID: to, Amount: dstAmt},
	}})
}

// CreateAccount adds an account. A non-zero opening balance is posted as a
// "Starting Balance" transaction dated today: income for a debit account,
// uncategorised for a credit account.
func (e *Engine) CreateAccount(name string, typ core.AccountType, opening core.Money, opts ...AccountOption) (core.AccountID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	a := core.Account{ID: core.AccountID(e.newID()), Name: name, Type: typ, CreatedAt: now}
	for _, opt := range opts {
		opt(&a)
	}
	ops := []Op{createAccountOp{Account: a}}
	if !opening.IsZero() {
		tx := core.Transaction{
			ID:        core.TxID(e.newID()),
			AccountID: a.ID,
			Date:      core.Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)},
			Payee:     "Starting Balance",
			Amount:    opening,
			Kind:      core.Regular,
		}
		if typ == core.Debit {
			tx.Group, tx.Item = core.ReadyToAssign, core.ReadyToAssign
		}
		ops = append(ops, addTxOp{Txs: []core.Transaction{tx}})
	}
	if err := e.execute(batchOp{Name: "create-account", Ops: ops}); err != nil {
		return "", err
	}
	return a.ID, nil
}

// AccountOption sets optional fields of a new account.
type AccountOption func(*core.Account)

// WithIssuer records the bank or card issuer of a new account.
func WithIssuer(issuer string) AccountOption {
	return func(a *core.Account) { a.Issuer = issuer }
}

// RenameAccount renames an account and, for a credit account, its payment
// item and the transactions categorised to it.
func (e *Engine) RenameAccount(id core.AccountID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(renameAccountOp{ID: id, Name: name})
}

// RemoveAccount removes an account with all of its transactions, the
// mirrors of those transactions, and its payment item.
func (e *Engine) RemoveAccount(id core.AccountID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []core.TxID
	for _, tx := range e.ledger.Transactions(func(tx core.Transaction) bool { return tx.AccountID == id }) {
		ids = append(ids, tx.ID)
	}
	ops := []Op{}
	if len(ids) > 0 {
		all, err := e.ledger.withMirrors(ids)
		if err != nil {
			return err
		}
		ops = append(ops, removeTxOp{IDs: all})
	}
	ops = append(ops, removeAccountOp{ID: id})
	return e.execute(batchOp{Name: "remove-account", Ops: ops})
}

// PostTransaction posts a transaction and returns its ID. An input with a
// TransferAccountID becomes a mirrored pair; the returned ID is the leg on
// AccountID.
func (e *Engine) PostTransaction(in TransactionInput) (core.TxID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	legs, err := e.build(in, core.TxID(e.newID()), "")
	if err != nil {
		return "", err
	}
	if err := e.execute(addTxOp{Txs: legs}); err != nil {
		return "", err
	}
	return legs[0].ID, nil
}

// Transfer moves amount from one account to another and returns the ID of
// the outgoing leg. A debit to credit transfer is a card payment.
func (e *Engine) Transfer(from, to core.AccountID, date core.Date, amount core.Money, memo string) (core.TxID, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("transfer amount must be positive: %w", core.ErrInvalidAmount)
	}
	return e.PostTransaction(TransactionInput{
		AccountID:         from,
		TransferAccountID: to,
		Date:              date,
		Amount:            amount.Neg(),
		Memo:              memo,
	})
}

// EditTransaction replaces a transaction, and its mirror, with the legs
// built from in. The edited leg keeps its ID.
func (e *Engine) EditTransaction(id core.TxID, in TransactionInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.ledger.Transaction(id)
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	old, err := e.ledger.withMirrors([]core.TxID{id})
	if err != nil {
		e.logger.Error("mirror integrity violated", log.FieldOperation, "edit-transaction", log.FieldError, err)
		return err
	}
	var mirrorID core.TxID
	if tx.IsMirrored() {
		mirror, _ := e.ledger.Mirror(tx)
		mirrorID = mirror.ID
	}
	legs, err := e.build(in, id, mirrorID)
	if err != nil {
		return err
	}
	return e.execute(batchOp{Name: "edit-transaction", Ops: []Op{
		removeTxOp{IDs: old},
		addTxOp{Txs: legs},
	}})
}

// DeleteTransactions deletes the given transactions and their mirrors as one
// command.
func (e *Engine) DeleteTransactions(ids ...core.TxID) error {
	if len(ids) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	all, err := e.ledger.withMirrors(ids)
	if err != nil {
		if errors.Is(err, core.ErrMirrorIntegrity) {
			e.logger.Error("mirror integrity violated", log.FieldOperation, "delete-transactions", log.FieldError, err)
		}
		return err
	}
	return e.execute(removeTxOp{IDs: all})
}

// Month materialises m and returns a copy of it.
func (e *Engine) Month(m core.Month) *MonthBudget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ensureMonth(m).Clone()
}

// ReadyToAssign returns the unassigned money of m.
func (e *Engine) ReadyToAssign(m core.Month) core.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ensureMonth(m).ReadyToAssign
}

// Summary materialises m and returns its read model.
func (e *Engine) Summary(m core.Month) core.MonthSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ensureMonth(m).Summary()
}

// Accounts returns every account in creation order.
func (e *Engine) Accounts() []core.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Accounts()
}

// Transactions returns the transactions matching filter in date order.
func (e *Engine) Transactions(filter func(core.Transaction) bool) []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Transactions(filter)
}

// Input returns the input that reproduces an existing transaction, for
// editing.
func (e *Engine) Input(id core.TxID) (TransactionInput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.ledger.Transaction(id)
	if !ok {
		return TransactionInput{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	in := TransactionInput{
		AccountID: tx.AccountID,
		Date:      tx.Date,
		Payee:     tx.Payee,
		Group:     tx.Group,
		Item:      tx.Item,
		Amount:    tx.Amount,
		Memo:      tx.Memo,
	}
	if tx.IsMirrored() {
		mirror, err := e.ledger.Mirror(tx)
		if err != nil {
			return TransactionInput{}, err
		}
		in.TransferAccountID = mirror.AccountID
		in.Payee, in.Group, in.Item = "", "", ""
	}
	return in, nil
}

// NextUndo returns the kind of the command Undo would reverse next.
func (e *Engine) NextUndo() (string, bool) {
	c, ok := e.history.Peek()
	return c.Kind, ok
}

// CanUndo and CanRedo let a UI disable its undo and redo actions.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// Changes drains the records changed since the last call.
func (e *Engine) Changes() ChangeSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Changes()
}

// Requeue marks the records of c as changed again, after a failed persist.
func (e *Engine) Requeue(c ChangeSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range c.Months {
		e.ledger.markMonth(m)
	}
	for _, id := range c.Accounts {
		e.ledger.markAccount(id)
	}
	for _, id := range c.Transactions {
		e.ledger.markTx(id)
	}
}

// Export builds the persisted form of the records listed in c.
func (e *Engine) Export(userID string, c ChangeSet) Export {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Export(userID, c, e.now())
}
