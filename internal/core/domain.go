package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Debit  AccountType = "debit"
	Credit AccountType = "credit"
)

const (
	// Regular transactions are ordinary spending or income.
	Regular TransactionKind = "regular"
	// Transfer legs move money between two accounts of the same type and
	// never touch a budget category.
	Transfer TransactionKind = "transfer"
	// Payment legs move money from a debit account to a credit account; the
	// debit leg is categorised to the card's payment item.
	Payment TransactionKind = "payment"
)

const (
	// CreditCardPaymentsGroup is the system group holding one item per credit account.
	CreditCardPaymentsGroup = "Credit Card Payments"
	// ReadyToAssign is the synthetic category of income transactions.
	ReadyToAssign = "Ready to Assign"
	// Uncategorized replaces missing text fields of imported rows.
	Uncategorized = "Uncategorized"
	// DateLayout is the storage layout of transaction dates.
	DateLayout = "2006-01-02"
)

type (
	AccountID       string
	TxID            string
	GroupID         string
	ItemID          string
	AccountType     string
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID        AccountID
		Name      string
		Issuer    string
		Type      AccountType
		Balance   Money
		CreatedAt time.Time
	}

	Transaction struct {
		ID        TxID
		AccountID AccountID
		Date      Date
		Payee     string
		Group     string // category group name, empty when uncategorised
		Item      string // category item name
		Amount    Money  // signed: negative is an outflow
		Kind      TransactionKind
		MirrorID  string // correlation id shared by both legs of a transfer or payment
		Memo      string
	}
)

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the "YYYY-MM-DD" form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsValid reports whether t is debit or credit.
func (t AccountType) IsValid() bool {
	return t == Debit || t == Credit
}

// Validate checks the name and type.
func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return errors.New("account name is required")
	}
	if len(name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	return nil
}

// Month returns the budget month the transaction is posted in.
func (t Transaction) Month() Month {
	return MonthOf(t.Date.Time)
}

// IsIncome reports whether the transaction funds Ready to Assign.
func (t Transaction) IsIncome() bool {
	return t.Kind == Regular && t.Group == ReadyToAssign
}

// IsMirrored reports whether the transaction is one leg of a pair.
func (t Transaction) IsMirrored() bool {
	return t.MirrorID != ""
}

// Categorized reports whether the transaction names a budget category item.
func (t Transaction) Categorized() bool {
	return t.Group != "" && t.Group != ReadyToAssign && t.Item != ""
}

// Validate checks the fields every stored transaction needs.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.AccountID == "" {
		return errors.New("account is required")
	}
	// a regular zero is a placeholder row; a zero leg pairs with nothing
	if t.Amount.IsZero() && t.Kind != Regular {
		return ErrInvalidAmount
	}
	if len(t.Payee) > 200 {
		return errors.New("payee too long (max 200 characters)")
	}
	switch t.Kind {
	case Regular, Transfer, Payment:
	default:
		return errors.New("invalid transaction kind")
	}
	return nil
}
