package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC)

	got, err := InvoiceNumber(DefaultInvoiceNumberTemplate, issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "FL-202602-000042", got)

	got, err = InvoiceNumber("{YY}{DD}/{SEQ}", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "2607/7", got)

	_, err = InvoiceNumber("", issued, 1)
	assert.Error(t, err)
	_, err = InvoiceNumber(DefaultInvoiceNumberTemplate, issued, 0)
	assert.Error(t, err)
	_, err = InvoiceNumber("INV-{QUARTER}", issued, 1)
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "USD 550.06", Money("USD", decimal.RequireFromString("550.06")))
	assert.Equal(t, "USD 1,999.00", Money("USD", decimal.NewFromInt(1999)))
	assert.Equal(t, "1,234,567.50", Money("", decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "EUR -12.30", Money("EUR", decimal.RequireFromString("-12.3")))
}
