package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity controls both the default reporting window and the time bucket
// size of the revenue series.
type Granularity string

const (
	GranularityDaily      Granularity = "daily"
	GranularityWeekly     Granularity = "weekly"
	GranularityMonthly    Granularity = "monthly"
	GranularityQuarterly  Granularity = "quarterly"
	GranularitySemiAnnual Granularity = "semiAnnual"
	GranularityAnnual     Granularity = "annual"
	GranularityAllTime    Granularity = "allTime"
)

// ParseGranularity maps a raw caller value to a granularity. Unknown values
// deliberately fall back to monthly (unlike malformed explicit dates, which
// are an error).
func ParseGranularity(s string) Granularity {
	switch g := Granularity(s); g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly,
		GranularityQuarterly, GranularitySemiAnnual, GranularityAnnual,
		GranularityAllTime:
		return g
	}
	return GranularityMonthly
}

type TimeRange struct {
	From time.Time
	To   time.Time
}

// DonorMetrics covers succeeded orders tracing to the scope in-period.
// DonorCount is a distinct count of donor ids.
type DonorMetrics struct {
	DonorCount  int
	AvgDonation decimal.Decimal
}

// CampaignMetrics counts campaigns owned by the scope. ActiveCampaigns equals
// TotalCampaigns: the period overlap filter is disabled upstream and kept so.
type CampaignMetrics struct {
	TotalCampaigns  int
	ActiveCampaigns int
}

// CardMetrics covers products created in-period and the ownership rows
// pointing at them.
type CardMetrics struct {
	CardsCreated int
	Redemptions  int
}

type FinancialMetrics struct {
	TotalSales    decimal.Decimal
	OrdersCount   int
	AvgOrderValue decimal.Decimal
}

// Overview merges the scalar report sections.
type Overview struct {
	Donors    DonorMetrics
	Campaigns CampaignMetrics
	Cards     CardMetrics
	Financial FinancialMetrics
}

// RevenueRow is one succeeded order as read for bucketing, before any
// grouping happens in Go.
type RevenueRow struct {
	Placed time.Time       `db:"placed"`
	Amount decimal.Decimal `db:"amount"`
}

// BucketPoint is one labeled time bucket of the revenue series. Start is the
// bucket's first instant, kept alongside the label for chronological sorting
// (labels are not zero-padded and do not sort lexically).
type BucketPoint struct {
	Label   string
	Start   time.Time
	Revenue decimal.Decimal
	Orders  int
}

// TrendPoint is the chart-friendly view of a bucket.
type TrendPoint struct {
	Label string
	Value decimal.Decimal
}

// CategoryCount is the platform-wide distribution of active associations by
// thematic category.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"cnt"`
}

// AssociationRank is one row of the platform-wide top performer ranking.
type AssociationRank struct {
	AssociationID int             `db:"association_id"`
	Name          string          `db:"name"`
	Revenue       decimal.Decimal `db:"revenue"`
	OrdersCount   int             `db:"orders_count"`
}

// AssociationReport is the association-scoped report shape.
type AssociationReport struct {
	AssociationID   int
	Period          TimeRange
	Granularity     Granularity
	Overview        Overview
	RevenueTrend    []TrendPoint
	TimePerformance []BucketPoint
}

// PlatformReport is the platform-wide dashboard shape.
type PlatformReport struct {
	Period          TimeRange
	Granularity     Granularity
	Overview        Overview
	RevenueTrend    []TrendPoint
	TimePerformance []BucketPoint
	Distribution    []CategoryCount
	TopPerformers   []AssociationRank
}
