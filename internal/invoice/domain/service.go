package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
)

type Service interface {
	GenerateInvoice(ctx context.Context, licenseID string, period usagedomain.Period) (Invoice, error)
	GetInvoice(ctx context.Context, id snowflake.ID) (Invoice, error)
	ListInvoices(ctx context.Context, licenseID string) ([]Invoice, error)
	RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error)
}

type Repository interface {
	// Create assigns the invoice number and stores the invoice with its items.
	Create(ctx context.Context, invoice *Invoice, number func(seq int64) (string, error)) error
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListByLicense(ctx context.Context, licenseID string) ([]Invoice, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrDuplicateNumber = errors.New("invoice_number_taken")
)
