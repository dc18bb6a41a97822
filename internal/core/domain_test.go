package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.Error(t, err, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", d.String())
	assert.Equal(t, MustMonth("2025-03"), MonthOf(d.Time))

	_, err = ParseDate("03/09/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestMonthArithmetic(t *testing.T) {
	dec := MustMonth("2024-12")
	assert.Equal(t, "2025-01", dec.Next().String())
	assert.Equal(t, "2024-11", dec.Prev().String())
	assert.Equal(t, "2023-12", dec.AddMonths(-12).String())
	assert.True(t, dec.Before(dec.Next()))
	assert.True(t, dec.Next().After(dec))
	assert.Equal(t, 0, dec.Compare(NewMonth(2025, 0)))
	assert.True(t, dec.Contains(NewDate(2024, 12, 31)))

	_, err := ParseMonth("2024-13")
	assert.ErrorIs(t, err, ErrInvalidMonth)

	var m Month
	require.NoError(t, m.UnmarshalText([]byte("2025-07")))
	assert.Equal(t, NewMonth(2025, time.July), m)
}

func TestAccountValidate(t *testing.T) {
	assert.NoError(t, Account{Name: "Checking", Type: Debit}.Validate())
	assert.Error(t, Account{Name: " ", Type: Debit}.Validate())
	assert.ErrorIs(t, Account{Name: "Visa", Type: "loan"}.Validate(), ErrInvalidAccountType)
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		AccountID: "acc",
		Date:      NewDate(2025, 1, 1),
		Payee:     "Landlord",
		Group:     "Bills",
		Item:      "Rent",
		Amount:    Dollars(-500),
		Kind:      Regular,
	}
	require.NoError(t, good.Validate())
	assert.True(t, good.Categorized())
	assert.False(t, good.IsIncome())

	income := good
	income.Group, income.Item, income.Amount = ReadyToAssign, ReadyToAssign, Dollars(2000)
	assert.True(t, income.IsIncome())
	assert.False(t, income.Categorized())

	bads := []Transaction{
		{AccountID: "acc", Amount: Dollars(1), Kind: Regular},                         // zero date
		{Date: NewDate(2025, 1, 1), Amount: Dollars(1), Kind: Regular},                // no account
		{AccountID: "acc", Date: NewDate(2025, 1, 1), Kind: Transfer, MirrorID: "m"},  // zero leg
		{AccountID: "acc", Date: NewDate(2025, 1, 1), Amount: Dollars(1), Kind: "x"}, // bad kind
	}
	placeholder := good
	placeholder.Amount = Money{}
	assert.NoError(t, placeholder.Validate())

	for i, tx := range bads {
		assert.Error(t, tx.Validate(), "case %d", i)
	}
}
