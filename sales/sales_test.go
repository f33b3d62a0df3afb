package sales_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sales-engine/sales"
)

func TestParseDate_AcceptedLayouts(t *testing.T) {
	want := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-02-03", "2025-02-03 00:00:00", "2025-02-03T00:00:00", "2025-02-03T00:00:00Z"} {
		got, err := sales.ParseDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed as %v", raw, got)
	}
}

func TestParseDate_DriverTimestampKeepsWallClock(t *testing.T) {
	want := time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2025-02-03 10:00:00+00:00",
		"2025-02-03 10:00:00.5+00:00",
		"2025-02-03 10:00:00+02:00",
	} {
		got, err := sales.ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := sales.ParseDate("03/02/2025")
	require.Error(t, err)
	assert.ErrorIs(t, err, sales.ErrValidation)

	var vErr *sales.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)
}

func TestParseOptionalDate_Blank(t *testing.T) {
	d, err := sales.ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestParseID(t *testing.T) {
	id, err := sales.ParseID("product_id", " 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = sales.ParseID("product_id", "abc")
	assert.ErrorIs(t, err, sales.ErrValidation)

	_, err = sales.ParseID("product_id", "0")
	assert.ErrorIs(t, err, sales.ErrValidation)
}

func TestParseAmount(t *testing.T) {
	f, err := sales.ParseAmount("amount", "7.5")
	require.NoError(t, err)
	assert.Equal(t, 7.5, f)

	_, err = sales.ParseAmount("amount", "seven")
	assert.ErrorIs(t, err, sales.ErrValidation)

	_, err = sales.ParseAmount("amount", "NaN")
	assert.ErrorIs(t, err, sales.ErrValidation)
}

func TestSaleInputFromForm(t *testing.T) {
	in, err := sales.SaleInputFromForm(map[string]string{
		"date":       "2025-02-03",
		"product_id": "1",
		"client_id":  "2",
		"quantity":   "5",
		"amount":     "7.50",
	})
	require.NoError(t, err)
	require.NotNil(t, in.Date)
	assert.Equal(t, "2025-02-03 00:00:00", in.Date.Format(sales.DateLayout))
	assert.Equal(t, int64(1), in.ProductID)
	assert.Equal(t, int64(2), in.ClientID)
	assert.Equal(t, int64(5), in.Quantity)
	assert.Equal(t, 7.5, in.Amount)
}

func TestSaleInputFromForm_BadAmount(t *testing.T) {
	_, err := sales.SaleInputFromForm(map[string]string{
		"date": "2025-02-03", "product_id": "1", "client_id": "1", "quantity": "1", "amount": "x",
	})
	var vErr *sales.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
}

func TestInputValidate(t *testing.T) {
	assert.ErrorIs(t, sales.ClientInput{Name: " "}.Validate(), sales.ErrValidation)
	assert.NoError(t, sales.ClientInput{Name: "Alice"}.Validate())
	assert.ErrorIs(t, sales.ProductInput{Name: "Pen", UnitPrice: math.Inf(1)}.Validate(), sales.ErrValidation)
	assert.ErrorIs(t, sales.SaleInput{ProductID: 0, ClientID: 1}.Validate(), sales.ErrValidation)
}

func TestStoreError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := error(&sales.StoreError{Op: "insert", Entity: "sale", Err: cause})

	assert.ErrorIs(t, err, sales.ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.False(t, sales.IsConflict(err))
	assert.Equal(t, "insert sale: disk I/O error", err.Error())
}

func TestSaleRow_NamesWhenJoinMissing(t *testing.T) {
	r := sales.SaleRow{}
	assert.Equal(t, "", r.ProductName())
	assert.Equal(t, "", r.CategoryName())
	assert.Equal(t, "", r.ClientName())
}
