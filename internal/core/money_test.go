package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half away from zero
		{" 2.50 ", 250, true},
		{"$1,234.56", 123456, true},
		{"-$1,234.56", -123456, true},
		{"-1", -100, true},
		{"0", 0, true},
		{"10+5", 1500, true},
		{"10 - 2.5 + 0.25", 775, true},
		{"-20+5", -1500, true},
		{"$10+$5", 1500, true},
		{"abc", 0, false},
		{"10+abc", 0, false},
		{"10+", 0, false},
		{"10+-5", 0, false},
		{"1.2.3", 0, false},
		{"1,23", 0, false},
		{"1e5", 0, false},
		{"$-5", 0, false},
		{"", 0, false},
		{".", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.out, got.Cents)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.True(t, got.IsZero(), "failed parse must yield zero, got %s", got)
		})
	}
}

func TestAmountOrZeroFallsBackToZero(t *testing.T) {
	assert.Equal(t, Dollars(15), AmountOrZero("10+5"))
	assert.Equal(t, Money{}, AmountOrZero("ten"))
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:          "$0.00",
		5:          "$0.05",
		-5:         "-$0.05",
		123456:     "$1,234.56",
		-100000000: "-$1,000,000.00",
		99999:      "$999.99",
	}
	for cents, want := range cases {
		assert.Equal(t, want, FormatMoney(Cents(cents)))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 99, 100, 101, 123456789, -987654321, 100000, math.MaxInt64, math.MinInt64}
	for c := int64(-2500); c <= 2500; c += 7 {
		values = append(values, c)
	}
	for _, c := range values {
		got, err := ParseAmount(FormatMoney(Cents(c)))
		require.NoError(t, err, "cents=%d", c)
		assert.Equal(t, c, got.Cents)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{A: Cents(-1230)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":-12.30}`, string(b))

	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.345,"b":"7","c":null}`), &v))
	assert.Equal(t, int64(1235), v.A.Cents)
	assert.Equal(t, int64(700), v.B.Cents)
	assert.True(t, v.C.IsZero())
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := Cents(math.MaxInt64).CheckedAdd(Cents(1))
	assert.ErrorIs(t, err, ErrAmountOverflow)
	_, err = Cents(math.MinInt64).CheckedSub(Cents(1))
	assert.ErrorIs(t, err, ErrAmountOverflow)

	sum, err := Cents(10).CheckedAdd(Cents(-25))
	require.NoError(t, err)
	assert.Equal(t, Cents(-15), sum)
}
