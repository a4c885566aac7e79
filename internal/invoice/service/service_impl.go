package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/factorylicense/internal/clock"
	invoicedomain "github.com/smallbiznis/factorylicense/internal/invoice/domain"
	"github.com/smallbiznis/factorylicense/internal/invoice/format"
	"github.com/smallbiznis/factorylicense/internal/invoice/render"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	obsmetrics "github.com/smallbiznis/factorylicense/internal/observability/metrics"
	"github.com/smallbiznis/factorylicense/internal/observability/tracing"
	"github.com/smallbiznis/factorylicense/internal/retry"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const numberAttempts = 3

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Repo     invoicedomain.Repository
	Licenses licensedomain.Service
	Usage    usagedomain.Service
	Renderer *render.PDFRenderer
	Clock    clock.Clock
	GenID    *snowflake.Node
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	repo     invoicedomain.Repository
	licenses licensedomain.Service
	usage    usagedomain.Service
	renderer *render.PDFRenderer
	clock    clock.Clock
	genID    *snowflake.Node
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:      p.Log.Named("invoice.service"),
		repo:     p.Repo,
		licenses: p.Licenses,
		usage:    p.Usage,
		renderer: p.Renderer,
		clock:    clk,
		genID:    p.GenID,
		metrics:  p.Metrics,
	}
}

func (s *Service) GenerateInvoice(ctx context.Context, licenseID string, period usagedomain.Period) (invoice invoicedomain.Invoice, err error) {
	ctx, span := tracing.Start(ctx, "invoice.GenerateInvoice", attribute.String("license_id", licenseID))
	defer func() { tracing.End(span, err) }()

	if period == "" {
		period = usagedomain.PeriodMonth
	}

	license, err := s.licenses.GetLicense(ctx, strings.TrimSpace(licenseID))
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	report, err := s.usage.GetUsageReport(ctx, license.ID, period)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	charges := invoicedomain.CalculateCharges(license, report)
	now := s.clock.Now()

	invoice = invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		LicenseID:      license.ID,
		FactoryID:      license.FactoryID,
		OrganizationID: license.OrganizationID,
		Period:         period,
		PeriodStart:    report.StartDate,
		IssueDate:      now,
		DueDate:        now.Add(invoicedomain.PaymentTerm),
		Status:         invoicedomain.InvoiceStatusPending,
		Currency:       charges.Currency,
		Subtotal:       charges.Subtotal,
		Tax:            charges.Tax,
		Total:          charges.Total,
		UsageSnapshot:  datatypes.NewJSONType(report.CurrentUsage),
		Items:          make([]invoicedomain.InvoiceItem, 0, len(charges.Items)),
		CreatedAt:      now,
	}
	for _, item := range charges.Items {
		item.ID = s.genID.Generate()
		item.InvoiceID = invoice.ID
		invoice.Items = append(invoice.Items, item)
	}

	number := func(seq int64) (string, error) {
		return format.InvoiceNumber(format.DefaultInvoiceNumberTemplate, now, seq)
	}
	_, err = retry.Do(ctx, numberAttempts, 5*time.Millisecond, func() (struct{}, error) {
		err := s.repo.Create(ctx, &invoice, number)
		if err != nil && !errors.Is(err, invoicedomain.ErrDuplicateNumber) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})
	if err != nil {
		s.log.Error("failed to store invoice",
			zap.String("license_id", license.ID),
			zap.String("period", string(period)),
			zap.Error(err))
		return invoicedomain.Invoice{}, err
	}

	s.metrics.ObserveInvoice(invoice.Currency, invoice.Total.InexactFloat64())
	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("license_id", license.ID),
		zap.String("total", invoice.Total.StringFixed(2)),
		zap.String("currency", invoice.Currency),
		zap.Int("items", len(invoice.Items)))
	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) ListInvoices(ctx context.Context, licenseID string) ([]invoicedomain.Invoice, error) {
	return s.repo.ListByLicense(ctx, strings.TrimSpace(licenseID))
}

func (s *Service) RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(invoice)
}
