package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/factorylicense/internal/changefeed"
	"github.com/smallbiznis/factorylicense/internal/clock"
	"github.com/smallbiznis/factorylicense/internal/config"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	obsmetrics "github.com/smallbiznis/factorylicense/internal/observability/metrics"
	"github.com/smallbiznis/factorylicense/internal/observability/tracing"
	plandomain "github.com/smallbiznis/factorylicense/internal/plan/domain"
	"github.com/smallbiznis/factorylicense/internal/retry"
	"github.com/smallbiznis/factorylicense/internal/syncutil"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxSaveAttempts = 5
	saveBaseDelay   = 10 * time.Millisecond
)

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Repo    licensedomain.Repository
	Plans   plandomain.Service
	Clock   clock.Clock
	GenID   *snowflake.Node
	Feed    changefeed.Feed     `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    licensedomain.Repository
	plans   plandomain.Service
	clock   clock.Clock
	genID   *snowflake.Node
	feed    changefeed.Feed
	metrics *obsmetrics.Metrics

	locks *syncutil.KeyedMutex
	cache *cache

	renewReactivates bool
}

func NewService(p ServiceParam) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:              p.Log.Named("license.service"),
		repo:             p.Repo,
		plans:            p.Plans,
		clock:            clk,
		genID:            p.GenID,
		feed:             p.Feed,
		metrics:          p.Metrics,
		locks:            syncutil.NewKeyedMutex(),
		cache:            newCache(),
		renewReactivates: p.Config.Billing.RenewReactivatesCancelled,
	}
}

func (s *Service) CreateLicense(ctx context.Context, req licensedomain.CreateLicenseRequest) (license licensedomain.License, err error) {
	ctx, span := tracing.Start(ctx, "license.CreateLicense", attribute.String("factory_id", req.FactoryID))
	defer func() { tracing.End(span, err) }()

	factoryID := strings.TrimSpace(req.FactoryID)
	if factoryID == "" {
		return licensedomain.License{}, licensedomain.ErrInvalidFactory
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		return licensedomain.License{}, licensedomain.ErrInvalidOrganization
	}

	plan, err := s.plans.GetPlan(plandomain.CategoryFactoryLicense, req.PlanID)
	if err != nil {
		return licensedomain.License{}, licensedomain.ErrInvalidPlan
	}

	now := s.clock.Now()
	license = licensedomain.License{
		ID:             licensedomain.NewLicenseID(factoryID, now),
		FactoryID:      factoryID,
		OrganizationID: orgID,
		PlanID:         plan.ID,
		Plan:           datatypes.NewJSONType(licensedomain.SnapshotOf(plan)),
		Status:         licensedomain.StatusActive,
		StartDate:      now,
		EndDate:        now.Add(licensedomain.Term),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, &license); err != nil {
		s.log.Error("failed to create license",
			zap.String("factory_id", factoryID),
			zap.String("plan_id", plan.ID),
			zap.Error(err))
		return licensedomain.License{}, err
	}

	s.cache.put(license)
	s.publish(ctx, changefeed.ChangeAdded, license)
	s.metrics.IncLicenseEvent("created")

	s.log.Info("license created",
		zap.String("license_id", license.ID),
		zap.String("factory_id", factoryID),
		zap.String("organization_id", orgID),
		zap.String("plan_id", plan.ID),
		zap.Time("end_date", license.EndDate))
	return license, nil
}

func (s *Service) GetLicense(ctx context.Context, licenseID string) (licensedomain.License, error) {
	licenseID = strings.TrimSpace(licenseID)
	if l, ok := s.cache.get(licenseID); ok {
		return l, nil
	}
	l, err := s.repo.Get(ctx, licenseID)
	if err != nil {
		return licensedomain.License{}, err
	}
	s.cache.put(*l)
	return *l, nil
}

func (s *Service) ListLicenses(ctx context.Context, req licensedomain.ListLicensesRequest) ([]licensedomain.License, error) {
	req.FactoryID = strings.TrimSpace(req.FactoryID)
	req.OrganizationID = strings.TrimSpace(req.OrganizationID)
	return s.repo.List(ctx, req)
}

func (s *Service) RenewLicense(ctx context.Context, licenseID string) (endDate time.Time, err error) {
	ctx, span := tracing.Start(ctx, "license.RenewLicense", attribute.String("license_id", licenseID))
	defer func() { tracing.End(span, err) }()

	updated, err := s.mutate(ctx, licenseID, func(l *licensedomain.License, now time.Time) ([]*usagedomain.UsageEvent, error) {
		if l.Status == licensedomain.StatusCancelled && !s.renewReactivates {
			return nil, licensedomain.ErrLicenseCancelled
		}
		l.EndDate = l.EndDate.Add(licensedomain.Term)
		l.Status = licensedomain.StatusActive
		l.CancelledAt = nil
		l.RenewedAt = &now
		return nil, nil
	})
	if err != nil {
		return time.Time{}, err
	}

	s.metrics.IncLicenseEvent("renewed")
	s.log.Info("license renewed",
		zap.String("license_id", updated.ID),
		zap.Time("end_date", updated.EndDate))
	return updated.EndDate, nil
}

func (s *Service) CancelLicense(ctx context.Context, licenseID string) (err error) {
	ctx, span := tracing.Start(ctx, "license.CancelLicense", attribute.String("license_id", licenseID))
	defer func() { tracing.End(span, err) }()

	_, err = s.mutate(ctx, licenseID, func(l *licensedomain.License, now time.Time) ([]*usagedomain.UsageEvent, error) {
		l.Status = licensedomain.StatusCancelled
		l.CancelledAt = &now
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncLicenseEvent("cancelled")
	s.log.Info("license cancelled", zap.String("license_id", licenseID))
	return nil
}

func (s *Service) TrackUsage(ctx context.Context, licenseID string, usageType usagedomain.UsageType, amount int64) (newUsage int64, err error) {
	ctx, span := tracing.Start(ctx, "license.TrackUsage",
		attribute.String("license_id", licenseID),
		attribute.String("usage_type", string(usageType)))
	defer func() { tracing.End(span, err) }()

	if _, ok := usagedomain.ParseUsageType(string(usageType)); !ok {
		return 0, licensedomain.ErrInvalidUsageType
	}
	amount, err = licensedomain.NormalizeAmount(amount)
	if err != nil {
		return 0, err
	}

	updated, err := s.mutate(ctx, licenseID, func(l *licensedomain.License, now time.Time) ([]*usagedomain.UsageEvent, error) {
		attempted, limit, ok := l.Allows(usageType, amount)
		if !ok && limit == plandomain.Unlimited {
			// Only an int64 overflow fails on an uncapped counter.
			return nil, licensedomain.ErrInvalidAmount
		}
		if !ok {
			return nil, &licensedomain.UsageLimitExceededError{
				UsageType: usageType,
				Attempted: attempted,
				Limit:     limit,
			}
		}
		l.Usage.Set(usageType, attempted)
		return []*usagedomain.UsageEvent{s.event(l.ID, usageType, amount, usagedomain.EventKindTrack, now)}, nil
	})
	switch {
	case licensedomain.IsUsageLimitExceeded(err):
		s.metrics.ObserveUsage(string(usageType), obsmetrics.OutcomeRejected, amount)
		s.log.Warn("usage limit exceeded",
			zap.String("license_id", licenseID),
			zap.String("usage_type", string(usageType)),
			zap.Int64("amount", amount),
			zap.Error(err))
		return 0, err
	case err != nil:
		s.metrics.ObserveUsage(string(usageType), obsmetrics.OutcomeError, amount)
		return 0, err
	}

	s.metrics.ObserveUsage(string(usageType), obsmetrics.OutcomeAccepted, amount)
	return updated.Usage.Get(usageType), nil
}

func (s *Service) SetUsage(ctx context.Context, licenseID string, usageType usagedomain.UsageType, value int64) (newUsage int64, err error) {
	ctx, span := tracing.Start(ctx, "license.SetUsage",
		attribute.String("license_id", licenseID),
		attribute.String("usage_type", string(usageType)))
	defer func() { tracing.End(span, err) }()

	if _, ok := usagedomain.ParseUsageType(string(usageType)); !ok {
		return 0, licensedomain.ErrInvalidUsageType
	}
	if value < 0 {
		return 0, licensedomain.ErrInvalidAmount
	}

	updated, err := s.mutate(ctx, licenseID, func(l *licensedomain.License, now time.Time) ([]*usagedomain.UsageEvent, error) {
		delta := value - l.Usage.Get(usageType)
		if delta == 0 {
			return nil, errUnchanged
		}
		l.Usage.Set(usageType, value)
		return []*usagedomain.UsageEvent{s.event(l.ID, usageType, delta, usagedomain.EventKindSet, now)}, nil
	})
	if err != nil {
		return 0, err
	}
	return updated.Usage.Get(usageType), nil
}

func (s *Service) IsLicenseActive(ctx context.Context, licenseID string) (bool, error) {
	l, err := s.GetLicense(ctx, licenseID)
	if err != nil {
		return false, err
	}
	return l.IsActiveAt(s.clock.Now()), nil
}

func (s *Service) CheckUsageLimit(ctx context.Context, licenseID string, usageType usagedomain.UsageType, amount int64) (bool, error) {
	if _, ok := usagedomain.ParseUsageType(string(usageType)); !ok {
		return false, licensedomain.ErrInvalidUsageType
	}
	amount, err := licensedomain.NormalizeAmount(amount)
	if err != nil {
		return false, err
	}
	l, err := s.GetLicense(ctx, licenseID)
	if err != nil {
		return false, err
	}
	_, _, ok := l.Allows(usageType, amount)
	return ok, nil
}

// ActiveLicenses returns the cached licenses that are active right now,
// ordered by id.
func (s *Service) ActiveLicenses() []licensedomain.License {
	return s.cache.active(s.clock.Now())
}

var errUnchanged = errors.New("license unchanged")

type mutation struct {
	license licensedomain.License
	changed bool
}

// mutate applies fn to a fresh copy of the stored license while holding the
// license lock, then saves it guarded by the version read. Version conflicts
// reload and reapply fn; any other failure is returned as is.
func (s *Service) mutate(
	ctx context.Context,
	licenseID string,
	fn func(l *licensedomain.License, now time.Time) ([]*usagedomain.UsageEvent, error),
) (licensedomain.License, error) {
	licenseID = strings.TrimSpace(licenseID)
	unlock, err := s.locks.LockContext(ctx, licenseID)
	if err != nil {
		return licensedomain.License{}, err
	}
	defer unlock()

	res, err := retry.Do(ctx, maxSaveAttempts, saveBaseDelay, func() (mutation, error) {
		current, err := s.repo.Get(ctx, licenseID)
		if err != nil {
			return mutation{}, retry.Permanent(err)
		}

		next := *current
		now := s.clock.Now()
		events, err := fn(&next, now)
		if errors.Is(err, errUnchanged) {
			return mutation{license: *current}, nil
		}
		if err != nil {
			return mutation{}, retry.Permanent(err)
		}

		next.Version = current.Version + 1
		next.UpdatedAt = now
		if err := s.repo.Save(ctx, &next, current.Version, events...); err != nil {
			if errors.Is(err, licensedomain.ErrVersionConflict) {
				s.metrics.IncVersionConflict()
				s.log.Debug("license version conflict, reloading",
					zap.String("license_id", licenseID),
					zap.Int64("version", current.Version))
				return mutation{}, err
			}
			return mutation{}, retry.Permanent(err)
		}
		return mutation{license: next, changed: true}, nil
	})
	if err != nil {
		return licensedomain.License{}, err
	}

	s.cache.put(res.license)
	if res.changed {
		s.publish(ctx, changefeed.ChangeModified, res.license)
	}
	return res.license, nil
}

func (s *Service) event(licenseID string, usageType usagedomain.UsageType, amount int64, kind usagedomain.EventKind, now time.Time) *usagedomain.UsageEvent {
	return &usagedomain.UsageEvent{
		ID:        s.genID.Generate(),
		LicenseID: licenseID,
		UsageType: usageType,
		Amount:    amount,
		Kind:      kind,
		Timestamp: now,
	}
}

func (s *Service) publish(ctx context.Context, changeType changefeed.ChangeType, l licensedomain.License) {
	if s.feed == nil {
		return
	}
	snapshot := l
	if err := s.feed.Publish(ctx, changefeed.Change{
		Type:      changeType,
		LicenseID: l.ID,
		License:   &snapshot,
	}); err != nil {
		s.log.Warn("failed to publish license change",
			zap.String("license_id", l.ID),
			zap.String("change", string(changeType)),
			zap.Error(err))
	}
}

// Warm loads every stored license into the cache.
func (s *Service) Warm(ctx context.Context) error {
	licenses, err := s.repo.List(ctx, licensedomain.ListLicensesRequest{})
	if err != nil {
		return err
	}
	for _, l := range licenses {
		s.cache.put(l)
	}
	s.log.Info("license cache warmed", zap.Int("licenses", len(licenses)))
	return nil
}

// ApplyChange folds a change from the feed into the cache.
func (s *Service) ApplyChange(change changefeed.Change) {
	s.cache.apply(change)
}

var _ licensedomain.Service = (*Service)(nil)
