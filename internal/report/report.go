// Package report assembles the admin dashboards: scalar overview sections,
// the bucketed revenue series and the platform-wide rankings.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
	"github.com/assolib/assolib-manager/internal/period"
	"golang.org/x/sync/errgroup"
)

// Config holds report assembly settings.
type Config struct {
	// TopPerformersLimit caps the platform ranking. Defaults to 5.
	TopPerformersLimit int `mapstructure:"top_performers_limit"`
}

// Service reads metrics through the repository and assembles report shapes.
type Service struct {
	repo dependency.Repository
	topN int
}

// New creates a report service.
func New(cfg Config, repo dependency.Repository) *Service {
	topN := cfg.TopPerformersLimit
	if topN <= 0 {
		topN = 5
	}
	return &Service{repo: repo, topN: topN}
}

// AssociationReport assembles the report scoped to one association. The
// association must exist and be of the association user type; period
// resolution errors and scope errors fail the whole call, section read
// failures degrade that section to its zero value.
func (s *Service) AssociationReport(ctx context.Context, associationID int, g entity.Granularity, startDate, endDate string) (*entity.AssociationReport, error) {
	if _, err := s.repo.Catalog().GetAssociationByID(ctx, associationID); err != nil {
		return nil, fmt.Errorf("verify association scope: %w", err)
	}

	rng, err := period.Resolve(g, startDate, endDate)
	if err != nil {
		return nil, err
	}

	scope := &associationID
	r := &entity.AssociationReport{
		AssociationID: associationID,
		Period:        rng,
		Granularity:   g,
	}

	var rows []entity.RevenueRow
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(s.section(egCtx, "donors", associationID, func(c context.Context) error {
		m, err := s.repo.Metrics().GetDonorMetrics(c, scope, rng)
		r.Overview.Donors = m
		return err
	}))
	eg.Go(s.section(egCtx, "campaigns", associationID, func(c context.Context) error {
		m, err := s.repo.Metrics().GetCampaignMetrics(c, scope)
		r.Overview.Campaigns = m
		return err
	}))
	eg.Go(s.section(egCtx, "cards", associationID, func(c context.Context) error {
		m, err := s.repo.Metrics().GetCardMetrics(c, scope, rng)
		r.Overview.Cards = m
		return err
	}))
	eg.Go(s.section(egCtx, "financial", associationID, func(c context.Context) error {
		m, err := s.repo.Metrics().GetFinancialMetrics(c, scope, rng)
		r.Overview.Financial = m
		return err
	}))
	eg.Go(s.section(egCtx, "revenue", associationID, func(c context.Context) error {
		var err error
		rows, err = s.repo.Metrics().GetRevenueRows(c, scope, rng)
		return err
	}))
	// section closures swallow their own errors, Wait only propagates
	// context cancellation
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r.RevenueTrend, r.TimePerformance = buildSeries(rows, g)
	return r, nil
}

// PlatformReport assembles the platform-wide dashboard.
func (s *Service) PlatformReport(ctx context.Context, g entity.Granularity, startDate, endDate string) (*entity.PlatformReport, error) {
	rng, err := period.Resolve(g, startDate, endDate)
	if err != nil {
		return nil, err
	}

	r := &entity.PlatformReport{
		Period:      rng,
		Granularity: g,
	}

	var rows []entity.RevenueRow
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(s.section(egCtx, "donors", 0, func(c context.Context) error {
		m, err := s.repo.Metrics().GetDonorMetrics(c, nil, rng)
		r.Overview.Donors = m
		return err
	}))
	eg.Go(s.section(egCtx, "campaigns", 0, func(c context.Context) error {
		m, err := s.repo.Metrics().GetCampaignMetrics(c, nil)
		r.Overview.Campaigns = m
		return err
	}))
	eg.Go(s.section(egCtx, "cards", 0, func(c context.Context) error {
		m, err := s.repo.Metrics().GetCardMetrics(c, nil, rng)
		r.Overview.Cards = m
		return err
	}))
	eg.Go(s.section(egCtx, "financial", 0, func(c context.Context) error {
		m, err := s.repo.Metrics().GetFinancialMetrics(c, nil, rng)
		r.Overview.Financial = m
		return err
	}))
	eg.Go(s.section(egCtx, "revenue", 0, func(c context.Context) error {
		var err error
		rows, err = s.repo.Metrics().GetRevenueRows(c, nil, rng)
		return err
	}))
	eg.Go(s.section(egCtx, "distribution", 0, func(c context.Context) error {
		d, err := s.repo.Metrics().GetCategoryDistribution(c)
		r.Distribution = d
		return err
	}))
	eg.Go(s.section(egCtx, "topPerformers", 0, func(c context.Context) error {
		t, err := s.repo.Metrics().GetTopAssociations(c, rng, s.topN)
		r.TopPerformers = t
		return err
	}))
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r.RevenueTrend, r.TimePerformance = buildSeries(rows, g)
	return r, nil
}

// section wraps one report section read. A failed section logs and leaves its
// zero value in place instead of failing the report or cancelling siblings.
func (s *Service) section(ctx context.Context, name string, associationID int, fn func(context.Context) error) func() error {
	return func() error {
		if err := fn(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "report section failed, degrading to zero value",
				slog.String("section", name),
				slog.Int("associationId", associationID),
				slog.String("err", err.Error()),
			)
		}
		return nil
	}
}

// buildSeries groups per-order revenue rows into labeled time buckets. Rows
// arrive ordered by placement time, so first-seen label order is
// chronological; a bucket with no orders simply does not appear.
func buildSeries(rows []entity.RevenueRow, g entity.Granularity) ([]entity.TrendPoint, []entity.BucketPoint) {
	var (
		order   []string
		buckets = make(map[string]*entity.BucketPoint, len(rows))
	)
	for _, row := range rows {
		label := period.BucketLabel(row.Placed, g)
		b, ok := buckets[label]
		if !ok {
			b = &entity.BucketPoint{
				Label: label,
				Start: period.BucketStart(row.Placed, g),
			}
			buckets[label] = b
			order = append(order, label)
		}
		b.Revenue = b.Revenue.Add(row.Amount)
		b.Orders++
	}

	trend := make([]entity.TrendPoint, 0, len(order))
	points := make([]entity.BucketPoint, 0, len(order))
	for _, label := range order {
		b := buckets[label]
		trend = append(trend, entity.TrendPoint{Label: b.Label, Value: b.Revenue})
		points = append(points, *b)
	}
	return trend, points
}
