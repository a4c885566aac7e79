package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/factorylicense/internal/clock"
	"github.com/smallbiznis/factorylicense/internal/config"
	invoicedomain "github.com/smallbiznis/factorylicense/internal/invoice/domain"
	"github.com/smallbiznis/factorylicense/internal/invoice/render"
	"github.com/smallbiznis/factorylicense/internal/invoice/repository"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	licenserepo "github.com/smallbiznis/factorylicense/internal/license/repository"
	licenseservice "github.com/smallbiznis/factorylicense/internal/license/service"
	obsmetrics "github.com/smallbiznis/factorylicense/internal/observability/metrics"
	planservice "github.com/smallbiznis/factorylicense/internal/plan/service"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	usagerepo "github.com/smallbiznis/factorylicense/internal/usage/repository"
	usageservice "github.com/smallbiznis/factorylicense/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var issuedAt = time.Date(2026, time.September, 20, 14, 0, 0, 0, time.UTC)

type fixture struct {
	svc      invoicedomain.Service
	licenses *licenseservice.Service
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(
		&licensedomain.License{},
		&usagedomain.UsageEvent{},
		&usagedomain.AIUsageLog{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	metrics, err := obsmetrics.New(nil)
	require.NoError(t, err)
	fc := clock.NewFakeClock(issuedAt)

	licenses := licenseservice.NewService(licenseservice.ServiceParam{
		Log:    zap.NewNop(),
		Config: config.Config{},
		Repo:   licenserepo.New(conn, 5*time.Second),
		Plans:  planservice.NewStatic(planservice.DefaultCatalog()),
		Clock:  fc,
		GenID:  node,
	})
	usage := usageservice.NewService(usageservice.ServiceParam{
		Log:      zap.NewNop(),
		Repo:     usagerepo.New(conn, 5*time.Second),
		Licenses: licenses,
		Clock:    fc,
		GenID:    node,
	})
	svc := NewService(ServiceParam{
		Log:      zap.NewNop(),
		Repo:     repository.New(conn, 5*time.Second),
		Licenses: licenses,
		Usage:    usage,
		Renderer: render.NewPDFRenderer(render.Issuer{Name: "Factory Cloud"}),
		Clock:    fc,
		GenID:    node,
		Metrics:  metrics,
	})
	return &fixture{svc: svc, licenses: licenses, clock: fc}
}

func (f *fixture) create(t *testing.T, planID string) licensedomain.License {
	t.Helper()
	l, err := f.licenses.CreateLicense(context.Background(), licensedomain.CreateLicenseRequest{
		FactoryID:      "factory-a",
		PlanID:         planID,
		OrganizationID: "org-1",
	})
	require.NoError(t, err)
	return l
}

func TestGenerateInvoiceProfessionalWithAIOverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, "professional")

	_, err := f.licenses.SetUsage(ctx, l.ID, usagedomain.UsageAIRequests, 1050)
	require.NoError(t, err)

	inv, err := f.svc.GenerateInvoice(ctx, l.ID, "")
	require.NoError(t, err)

	assert.Equal(t, usagedomain.PeriodMonth, inv.Period)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, inv.Status)
	assert.True(t, inv.IssueDate.Equal(issuedAt))
	assert.True(t, inv.DueDate.Equal(issuedAt.Add(30*24*time.Hour)))
	assert.Equal(t, "500.05", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "50.01", inv.Tax.StringFixed(2))
	assert.Equal(t, "550.06", inv.Total.StringFixed(2))
	assert.Equal(t, "FL-202609-000001", inv.InvoiceNumber)
	assert.Equal(t, int64(1050), inv.UsageSnapshot.Data().AIRequests)

	stored, err := f.svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, invoicedomain.ItemTypeBase, stored.Items[0].Type)
	assert.Equal(t, invoicedomain.ItemTypeAIOverage, stored.Items[1].Type)
	assert.Equal(t, "0.05", stored.Items[1].Total.StringFixed(2))
	assert.Equal(t, "550.06", stored.Total.StringFixed(2))
}

func TestGenerateInvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, "starter")

	first, err := f.svc.GenerateInvoice(ctx, l.ID, usagedomain.PeriodMonth)
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	second, err := f.svc.GenerateInvoice(ctx, l.ID, usagedomain.PeriodYear)
	require.NoError(t, err)

	assert.Equal(t, "FL-202609-000001", first.InvoiceNumber)
	assert.Equal(t, "FL-202609-000002", second.InvoiceNumber)

	list, err := f.svc.ListInvoices(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
}

func TestGenerateInvoiceErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GenerateInvoice(ctx, "missing", usagedomain.PeriodMonth)
	assert.ErrorIs(t, err, licensedomain.ErrLicenseNotFound)

	l := f.create(t, "starter")
	_, err = f.svc.GenerateInvoice(ctx, l.ID, usagedomain.Period("decade"))
	assert.ErrorIs(t, err, usagedomain.ErrInvalidPeriod)

	_, err = f.svc.GetInvoice(ctx, snowflake.ID(42))
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, "starter")
	_, err := f.licenses.SetUsage(ctx, l.ID, usagedomain.UsageStorage, 2000)
	require.NoError(t, err)

	inv, err := f.svc.GenerateInvoice(ctx, l.ID, usagedomain.PeriodMonth)
	require.NoError(t, err)

	r, err := f.svc.RenderPDF(ctx, inv.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}
