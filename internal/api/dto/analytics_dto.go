package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// DateRangeRequest bounds a report. Both ends default server side.
type DateRangeRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// OverviewResponse is the analytics overview.
type OverviewResponse struct {
	TotalVisitors       int     `json:"totalVisitors"`
	CheckedIn           int     `json:"checkedIn"`
	CheckedOut          int     `json:"checkedOut"`
	PendingApprovals    int     `json:"pendingApprovals"`
	Declined            int     `json:"declined"`
	AverageVisitMinutes float64 `json:"averageVisitMinutes"`
	OpenTickets         int     `json:"openTickets"`
	TotalTickets        int     `json:"totalTickets"`
}

// Overview converts the domain report.
func Overview(o *domain.AnalyticsOverview) OverviewResponse {
	return OverviewResponse(*o)
}

// NamedCountResponse is a top-N row.
type NamedCountResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Count int    `json:"count"`
}

// VisitorAnalyticsResponse ranks companies and repeat visitors.
type VisitorAnalyticsResponse struct {
	TopCompanies    []NamedCountResponse         `json:"topCompanies"`
	TopVisitors     []NamedCountResponse         `json:"topVisitors"`
	StatusBreakdown map[domain.VisitorStatus]int `json:"statusBreakdown"`
}

// VisitorAnalytics converts the domain report.
func VisitorAnalytics(v *domain.VisitorAnalytics) VisitorAnalyticsResponse {
	breakdown := v.StatusBreakdown
	if breakdown == nil {
		breakdown = map[domain.VisitorStatus]int{}
	}
	return VisitorAnalyticsResponse{
		TopCompanies:    namedCounts(v.TopCompanies),
		TopVisitors:     namedCounts(v.TopVisitors),
		StatusBreakdown: breakdown,
	}
}

func namedCounts(items []domain.NamedCount) []NamedCountResponse {
	out := make([]NamedCountResponse, 0, len(items))
	for _, c := range items {
		out = append(out, NamedCountResponse(c))
	}
	return out
}

// DailyCountResponse is one day of check-ins.
type DailyCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TrafficResponse buckets check-ins by time.
type TrafficResponse struct {
	Hourly    [24]int              `json:"hourly"`
	DayOfWeek [7]int               `json:"dayOfWeek"`
	Daily     []DailyCountResponse `json:"daily"`
}

// Traffic converts the domain report.
func Traffic(t *domain.TrafficAnalytics) TrafficResponse {
	daily := make([]DailyCountResponse, 0, len(t.Daily))
	for _, d := range t.Daily {
		daily = append(daily, DailyCountResponse(d))
	}
	return TrafficResponse{Hourly: t.Hourly, DayOfWeek: t.DayOfWeek, Daily: daily}
}
