package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/factorylicense/internal/invoice/domain"
	"github.com/smallbiznis/factorylicense/pkg/db"
	"github.com/smallbiznis/factorylicense/pkg/db/option"
	"github.com/smallbiznis/factorylicense/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	db       *gorm.DB
	invoices repository.Repository[invoicedomain.Invoice]
	timeout  time.Duration
}

func Provide(conn *gorm.DB, cfg db.Config) invoicedomain.Repository {
	return New(conn, cfg.Timeout)
}

func New(conn *gorm.DB, timeout time.Duration) invoicedomain.Repository {
	return &repo{
		db:       conn,
		invoices: repository.ProvideStore[invoicedomain.Invoice](conn),
		timeout:  timeout,
	}
}

func (r *repo) Create(ctx context.Context, invoice *invoicedomain.Invoice, number func(seq int64) (string, error)) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := r.invoices.WithTrx(tx)
		seq, err := store.Count(ctx, &invoicedomain.Invoice{})
		if err != nil {
			return err
		}
		invoice.InvoiceNumber, err = number(seq + 1)
		if err != nil {
			return err
		}
		return store.Create(ctx, invoice)
	})
	if db.IsDuplicateKeyErr(err) {
		return invoicedomain.ErrDuplicateNumber
	}
	return db.Wrap("invoices.create", err)
}

func (r *repo) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var invoice invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("id = ?", id).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, db.Wrap("invoices.get", err)
	}
	return &invoice, nil
}

func (r *repo) ListByLicense(ctx context.Context, licenseID string) ([]invoicedomain.Invoice, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	items, err := r.invoices.Find(ctx,
		&invoicedomain.Invoice{LicenseID: licenseID},
		option.WithSortBy(option.QuerySortBy{Field: "issue_date", Desc: true}),
		option.WithSortBy(option.QuerySortBy{Field: "id", Desc: true}),
	)
	if err != nil {
		return nil, db.Wrap("invoices.list", err)
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}
