package domain

import "time"

// DateRange bounds a report. From is inclusive, To exclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// AnalyticsOverview summarises front desk and helpdesk activity.
type AnalyticsOverview struct {
	TotalVisitors       int
	CheckedIn           int
	CheckedOut          int
	PendingApprovals    int
	Declined            int
	AverageVisitMinutes float64
	OpenTickets         int
	TotalTickets        int
}

// NamedCount is one row of a top-N report.
type NamedCount struct {
	Name  string
	Email string
	Count int
}

// VisitorAnalytics ranks companies and repeat visitors.
type VisitorAnalytics struct {
	TopCompanies    []NamedCount
	TopVisitors     []NamedCount
	StatusBreakdown map[VisitorStatus]int
}

// DailyCount is the number of check-ins on one calendar day.
type DailyCount struct {
	Date  string
	Count int
}

// TrafficAnalytics buckets check-ins by time. DayOfWeek index 0 is Sunday.
type TrafficAnalytics struct {
	Hourly    [24]int
	DayOfWeek [7]int
	Daily     []DailyCount
}
