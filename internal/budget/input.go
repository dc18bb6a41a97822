package budget

import (
	"errors"
	"fmt"
	"strings"

	"budgeteer/internal/core"
)

// TransferPayeePrefix starts the payee of both legs of a transfer.
const TransferPayeePrefix = "Transfer : "

// TransactionInput is what a user enters for a transaction. Setting
// TransferAccountID makes it a transfer: a negative Amount leaves AccountID
// for TransferAccountID, a positive one arrives from it. Transfers ignore
// Payee, Group and Item.
type TransactionInput struct {
	AccountID         core.AccountID
	TransferAccountID core.AccountID
	Date              core.Date
	Payee             string
	Group             string
	Item              string
	Amount            core.Money
	Memo              string
}

// build turns in into ledger transactions; the leg on in.AccountID comes
// first and gets id. Must be called with e.mu held.
func (e *Engine) build(in TransactionInput, id, mirrorLegID core.TxID) ([]core.Transaction, error) {
	if in.TransferAccountID == "" {
		tx := core.Transaction{
			ID:        id,
			AccountID: in.AccountID,
			Date:      in.Date,
			Payee:     strings.TrimSpace(in.Payee),
			Group:     strings.TrimSpace(in.Group),
			Item:      strings.TrimSpace(in.Item),
			Amount:    in.Amount,
			Kind:      core.Regular,
			Memo:      in.Memo,
		}
		if tx.Group == core.ReadyToAssign {
			tx.Item = core.ReadyToAssign
		}
		return []core.Transaction{tx}, nil
	}

	if in.TransferAccountID == in.AccountID {
		return nil, errors.New("cannot transfer to the same account")
	}
	if in.Amount.IsZero() {
		return nil, fmt.Errorf("transfer: %w", core.ErrInvalidAmount)
	}
	self, ok := e.ledger.accounts[in.AccountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", in.AccountID, core.ErrNotFound)
	}
	other, ok := e.ledger.accounts[in.TransferAccountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", in.TransferAccountID, core.ErrNotFound)
	}
	if mirrorLegID == "" {
		mirrorLegID = core.TxID(e.newID())
	}

	from, to := self, other
	amount := in.Amount.Neg()
	if in.Amount.IsPositive() {
		from, to = other, self
		amount = in.Amount
	}
	legs := transferLegs(from, to, amount, e.newID())
	for i := range legs {
		legs[i].Date = in.Date
		legs[i].Memo = in.Memo
		legs[i].ID = mirrorLegID
		if legs[i].AccountID == in.AccountID {
			legs[i].ID = id
		}
	}
	if legs[0].AccountID != in.AccountID {
		legs[0], legs[1] = legs[1], legs[0]
	}
	return legs, nil
}

// transferLegs returns the outgoing and incoming legs of moving a positive
// amount from one account to another. Debit to credit is a card payment:
// its outgoing leg spends from the card's payment item.
func transferLegs(from, to *core.Account, amount core.Money, correlation string) []core.Transaction {
	out := core.Transaction{
		AccountID: from.ID,
		Payee:     TransferPayeePrefix + to.Name,
		Amount:    amount.Neg(),
		Kind:      core.Transfer,
		MirrorID:  correlation,
	}
	in := core.Transaction{
		AccountID: to.ID,
		Payee:     TransferPayeePrefix + from.Name,
		Amount:    amount,
		Kind:      core.Transfer,
		MirrorID:  correlation,
	}
	if from.Type == core.Debit && to.Type == core.Credit {
		out.Kind, in.Kind = core.Payment, core.Payment
		out.Group, out.Item = core.CreditCardPaymentsGroup, to.Name
	}
	return []core.Transaction{out, in}
}
