package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{"1.0049", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"12.", 1200, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"١٢", 0, false},
		{"92233720368547758.08", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		1234:  "12.34",
		-1205: "-12.05",
		10000: "100.00",
	}
	for cents, want := range cases {
		assert.Equal(t, want, Cents(cents).String())
	}
}

func TestMoneyDivRound(t *testing.T) {
	cases := []struct {
		cents, n, want int64
	}{
		{3100, 31, 100},
		{100, 3, 33},
		{200, 3, 67},
		{5, 2, 3},
		{-5, 2, -3},
		{0, 30, 0},
		{100, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Cents(tc.cents).DivRound(tc.n).Cents, "%d/%d", tc.cents, tc.n)
	}
}

func TestMoneyPercentOf(t *testing.T) {
	assert.Equal(t, 80.0, Cents(8000).PercentOf(Cents(10000)))
	assert.Equal(t, 100.0, Cents(3).PercentOf(Cents(3)))
	assert.InDelta(t, 33.3333333, Cents(100).PercentOf(Cents(300)), 1e-6)
	assert.Equal(t, 150.0, Cents(15000).PercentOf(Cents(10000)))
	assert.Zero(t, Cents(100).PercentOf(Money{}))
	assert.Zero(t, Cents(100).PercentOf(Cents(-5)))
}

func TestMoneyJSON(t *testing.T) {
	b, err := Cents(1234).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "1234", string(b))

	var m Money
	assert.Error(t, m.UnmarshalJSON([]byte("12.5")), "fractional cents")
}
