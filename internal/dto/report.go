package dto

import (
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
)

// Monetary values render as decimal strings, matching what the checkout side
// stores and what admin tooling already parses.

type Overview struct {
	DonorCount      int    `json:"donorCount"`
	AvgDonation     string `json:"avgDonation"`
	TotalCampaigns  int    `json:"totalCampaigns"`
	ActiveCampaigns int    `json:"activeCampaigns"`
	CardsCreated    int    `json:"cardsCreated"`
	Redemptions     int    `json:"redemptions"`
	TotalSales      string `json:"totalSales"`
	OrdersCount     int    `json:"ordersCount"`
	AvgOrderValue   string `json:"avgOrderValue"`
}

type TrendPoint struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type BucketPoint struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Revenue string    `json:"revenue"`
	Orders  int       `json:"orders"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type AssociationRank struct {
	AssociationID int    `json:"associationId"`
	Name          string `json:"name"`
	Revenue       string `json:"revenue"`
	OrdersCount   int    `json:"ordersCount"`
}

type AssociationReport struct {
	AssociationID   int           `json:"associationId"`
	From            time.Time     `json:"from"`
	To              time.Time     `json:"to"`
	Granularity     string        `json:"granularity"`
	Overview        Overview      `json:"overview"`
	RevenueTrend    []TrendPoint  `json:"revenueTrend"`
	TimePerformance []BucketPoint `json:"timePerformance"`
}

type PlatformReport struct {
	From            time.Time         `json:"from"`
	To              time.Time         `json:"to"`
	Granularity     string            `json:"granularity"`
	Overview        Overview          `json:"overview"`
	RevenueTrend    []TrendPoint      `json:"revenueTrend"`
	TimePerformance []BucketPoint     `json:"timePerformance"`
	Distribution    []CategoryCount   `json:"distribution"`
	TopPerformers   []AssociationRank `json:"topPerformers"`
}

func convertOverview(o entity.Overview) Overview {
	return Overview{
		DonorCount:      o.Donors.DonorCount,
		AvgDonation:     o.Donors.AvgDonation.String(),
		TotalCampaigns:  o.Campaigns.TotalCampaigns,
		ActiveCampaigns: o.Campaigns.ActiveCampaigns,
		CardsCreated:    o.Cards.CardsCreated,
		Redemptions:     o.Cards.Redemptions,
		TotalSales:      o.Financial.TotalSales.String(),
		OrdersCount:     o.Financial.OrdersCount,
		AvgOrderValue:   o.Financial.AvgOrderValue.String(),
	}
}

func convertTrend(points []entity.TrendPoint) []TrendPoint {
	out := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPoint{Label: p.Label, Value: p.Value.String()})
	}
	return out
}

func convertBuckets(points []entity.BucketPoint) []BucketPoint {
	out := make([]BucketPoint, 0, len(points))
	for _, p := range points {
		out = append(out, BucketPoint{
			Label:   p.Label,
			Start:   p.Start,
			Revenue: p.Revenue.String(),
			Orders:  p.Orders,
		})
	}
	return out
}

// ConvertAssociationReport converts the report entity to its JSON shape.
func ConvertAssociationReport(r *entity.AssociationReport) AssociationReport {
	return AssociationReport{
		AssociationID:   r.AssociationID,
		From:            r.Period.From,
		To:              r.Period.To,
		Granularity:     string(r.Granularity),
		Overview:        convertOverview(r.Overview),
		RevenueTrend:    convertTrend(r.RevenueTrend),
		TimePerformance: convertBuckets(r.TimePerformance),
	}
}

// ConvertPlatformReport converts the report entity to its JSON shape.
func ConvertPlatformReport(r *entity.PlatformReport) PlatformReport {
	distribution := make([]CategoryCount, 0, len(r.Distribution))
	for _, d := range r.Distribution {
		distribution = append(distribution, CategoryCount{Category: d.Category, Count: d.Count})
	}
	top := make([]AssociationRank, 0, len(r.TopPerformers))
	for _, t := range r.TopPerformers {
		top = append(top, AssociationRank{
			AssociationID: t.AssociationID,
			Name:          t.Name,
			Revenue:       t.Revenue.String(),
			OrdersCount:   t.OrdersCount,
		})
	}
	return PlatformReport{
		From:            r.Period.From,
		To:              r.Period.To,
		Granularity:     string(r.Granularity),
		Overview:        convertOverview(r.Overview),
		RevenueTrend:    convertTrend(r.RevenueTrend),
		TimePerformance: convertBuckets(r.TimePerformance),
		Distribution:    distribution,
		TopPerformers:   top,
	}
}
