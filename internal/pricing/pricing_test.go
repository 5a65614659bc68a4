package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMovingAverageWorkedExample(t *testing.T) {
	// stock 10 @ 100, receive 5 @ 200: (1000 + 1000) / 15
	adj, ok, err := MovingAverage(d("10"), d("100"), d("5"), LineTotal(d("5"), d("200")), 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, adj.StockAfter.Equal(d("15")), adj.StockAfter.String())
	assert.True(t, adj.CostAfter.Equal(d("133")), adj.CostAfter.String())

	adj, _, err = MovingAverage(d("10"), d("100"), d("5"), d("1000"), 2)
	require.NoError(t, err)
	assert.True(t, adj.CostAfter.Equal(d("133.33")), adj.CostAfter.String())
}

func TestMovingAverageRoundsHalfUp(t *testing.T) {
	// (0*0 + 5) / 2 = 2.5
	adj, ok, err := MovingAverage(d("0"), d("0"), d("2"), d("5"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", adj.CostAfter.String())

	// 0.125 at two places
	adj, _, err = MovingAverage(d("0"), d("0"), d("8"), d("1"), 2)
	require.NoError(t, err)
	assert.Equal(t, "0.13", adj.CostAfter.String())
}

func TestMovingAverageFromEmptyStock(t *testing.T) {
	adj, ok, err := MovingAverage(decimal.Zero, decimal.Zero, d("4"), d("1000"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4", adj.StockAfter.String())
	assert.Equal(t, "250", adj.CostAfter.String())
}

func TestMovingAverageSkipsZeroQuantity(t *testing.T) {
	adj, ok, err := MovingAverage(d("10"), d("100"), decimal.Zero, decimal.Zero, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, CostAdjustment{}, adj)
}

func TestMovingAverageRejectsNegativeInput(t *testing.T) {
	_, _, err := MovingAverage(d("10"), d("100"), d("-1"), d("100"), 0)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	_, _, err = MovingAverage(d("10"), d("100"), d("1"), d("-100"), 0)
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestReturnTotals(t *testing.T) {
	totals, grand := ReturnTotals([]ReturnLine{
		{Quantity: d("2"), UnitPrice: d("100")},
		{Quantity: d("1"), UnitPrice: d("50")},
	})
	require.Len(t, totals, 2)
	assert.Equal(t, "200", totals[0].String())
	assert.Equal(t, "50", totals[1].String())
	assert.Equal(t, "250", grand.String())

	_, empty := ReturnTotals(nil)
	assert.True(t, empty.IsZero())
}

func TestSalesTotals(t *testing.T) {
	sub, grand, err := SalesTotals([]decimal.Decimal{d("1500000"), d("250000")}, d("50000"))
	require.NoError(t, err)
	assert.Equal(t, "1750000", sub.String())
	assert.Equal(t, "1700000", grand.String())

	_, _, err = SalesTotals([]decimal.Decimal{d("100")}, d("101"))
	assert.ErrorIs(t, err, ErrDiscountOutOfRange)

	_, _, err = SalesTotals([]decimal.Decimal{d("100")}, d("-1"))
	assert.ErrorIs(t, err, ErrDiscountOutOfRange)
}

func TestOutstanding(t *testing.T) {
	paid, unpaid := Outstanding(d("1000"), d("400"), d("200"))
	assert.Equal(t, "600", paid.String())
	assert.Equal(t, "400", unpaid.String())
}

func TestFormatIDR(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"999":        "999",
		"1000":       "1.000",
		"150000":     "150.000",
		"1234567.5":  "1.234.567,5",
		"1234.5678":  "1.234,568",
		"12.30":      "12,3",
		"-2500000":   "-2.500.000",
		"100000.000": "100.000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatIDR(d(in)), in)
	}
}

func TestEncodePriceCode(t *testing.T) {
	assert.Equal(t, "TWI.III", EncodePriceCode(d("150000")))
	assert.Equal(t, "T.ANG.WEK,C", EncodePriceCode(d("1234567.8")))
	assert.Equal(t, "U", EncodePriceCode(d("9")))
	// deterministic
	assert.Equal(t, EncodePriceCode(d("150000")), EncodePriceCode(d("150000.00")))
}

func TestPriceCodeRoundTrip(t *testing.T) {
	seen := map[string]string{}
	for _, in := range []string{"0", "1", "10", "100", "150000", "150001", "1500000", "2750000.5", "12345678.125"} {
		code := EncodePriceCode(d(in))
		if prev, dup := seen[code]; dup {
			t.Fatalf("code %q produced by both %s and %s", code, prev, in)
		}
		seen[code] = in

		back, err := DecodePriceCode(code)
		require.NoError(t, err)
		assert.True(t, back.Equal(d(in)), "%s -> %s -> %s", in, code, back)
	}
}

func TestDecodePriceCodeRejectsUnknownLetters(t *testing.T) {
	_, err := DecodePriceCode("TWX.III")
	assert.Error(t, err)
}

func TestFormatCode(t *testing.T) {
	code, err := FormatCode("PRD", 1)
	require.NoError(t, err)
	assert.Equal(t, "PRD00000001", code)

	code, err = FormatCode("PO", 12345678)
	require.NoError(t, err)
	assert.Equal(t, "PO12345678", code)

	_, err = FormatCode("SO", 100000000)
	assert.ErrorIs(t, err, ErrCodeOverflow)
	_, err = FormatCode("SO", 0)
	assert.ErrorIs(t, err, ErrCodeOverflow)
}

func TestNextCode(t *testing.T) {
	next, err := NextCode("PRD", "")
	require.NoError(t, err)
	assert.Equal(t, "PRD00000001", next)

	next, err = NextCode("PRD", "PRD00000041")
	require.NoError(t, err)
	assert.Equal(t, "PRD00000042", next)

	_, err = NextCode("PRD", "SO00000001")
	assert.ErrorIs(t, err, ErrInvalidCode)
}
