// Package analytics turns a project list into chart-ready aggregates.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/project"
)

// RecentWindow is the look-back of Stats.Recent
const RecentWindow = 30 * 24 * time.Hour

// NotStarted labels projects without a status
const NotStarted = "Not Started"

// Stats are the headline numbers of the overview tab
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	Planning       int     `json:"planning"`
	Testing        int     `json:"testing"`
	OnHold         int     `json:"onHold"`
	Cancelled      int     `json:"cancelled"`
	CompletionRate float64 `json:"completionRate"`
	Recent         int     `json:"recent"`
}

// StatusCount is one slice of the status chart
type StatusCount struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// TimelinePoint is the number of projects created in one month
type TimelinePoint struct {
	Month      string `json:"month"` // YYYY-MM
	Label      string `json:"label"` // Jan 2006
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// Report is everything the analytics view renders
type Report struct {
	Stats        Stats           `json:"stats"`
	Distribution []StatusCount   `json:"distribution"`
	Timeline     []TimelinePoint `json:"timeline"`
	HistoryDays  int             `json:"historyDays"`
}

var statusColors = map[string]string{
	string(project.StatusPlanning):   "#8B5CF6",
	string(project.StatusInProgress): "#F59E0B",
	string(project.StatusTesting):    "#3B82F6",
	string(project.StatusCompleted):  "#10B981",
	string(project.StatusOnHold):     "#6B7280",
	string(project.StatusCancelled):  "#EF4444",
}

const defaultColor = "#9CA3AF"

// Build produces the report for p. The timeline is limited to the plan's
// analytics history window; the stats and distribution cover every project.
func Build(projects []project.Project, p plan.Plan, now time.Time) Report {
	return Report{
		Stats:        Summarize(projects, now),
		Distribution: StatusDistribution(projects),
		Timeline:     Timeline(projects, now, p.Limits.AnalyticsHistoryDays),
		HistoryDays:  p.Limits.AnalyticsHistoryDays,
	}
}

// Summarize counts projects per status. The completion rate is a percentage
// rounded to one decimal. A project without CreatedAt counts as recent.
func Summarize(projects []project.Project, now time.Time) Stats {
	s := Stats{Total: len(projects)}
	since := now.Add(-RecentWindow)

	for _, p := range projects {
		switch p.Status {
		case project.StatusCompleted:
			s.Completed++
		case project.StatusInProgress:
			s.InProgress++
		case project.StatusPlanning:
			s.Planning++
		case project.StatusTesting:
			s.Testing++
		case project.StatusOnHold:
			s.OnHold++
		case project.StatusCancelled:
			s.Cancelled++
		}
		if createdAt(p, now).Compare(since) >= 0 {
			s.Recent++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = round1(float64(s.Completed) / float64(s.Total) * 100)
	}
	return s
}

// StatusDistribution returns the non-empty statuses in canonical order,
// followed by any unrecognized ones sorted by name
func StatusDistribution(projects []project.Project) []StatusCount {
	counts := make(map[string]int)
	for _, p := range projects {
		status := string(p.Status)
		if status == "" {
			status = NotStarted
		}
		counts[status]++
	}

	order := make([]string, 0, len(counts))
	for _, s := range project.Statuses {
		if counts[string(s)] > 0 {
			order = append(order, string(s))
		}
	}
	var extra []string
	for s := range counts {
		if _, known := statusColors[s]; !known {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	result := make([]StatusCount, 0, len(order))
	for _, s := range order {
		color, ok := statusColors[s]
		if !ok {
			color = defaultColor
		}
		result = append(result, StatusCount{
			Status:  s,
			Count:   counts[s],
			Percent: round1(float64(counts[s]) / float64(len(projects)) * 100),
			Color:   color,
		})
	}
	return result
}

// Timeline groups projects by creation month, oldest first, with running
// totals. Only projects created within historyDays of now are included;
// plan.Unlimited includes everything.
func Timeline(projects []project.Project, now time.Time, historyDays int) []TimelinePoint {
	var since time.Time
	if historyDays != plan.Unlimited {
		since = now.AddDate(0, 0, -historyDays)
	}

	counts := make(map[string]int)
	for _, p := range projects {
		t := createdAt(p, now)
		if !since.IsZero() && t.Before(since) {
			continue
		}
		counts[t.UTC().Format("2006-01")]++
	}

	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]TimelinePoint, 0, len(months))
	cumulative := 0
	for _, m := range months {
		cumulative += counts[m]
		label := m
		if t, err := time.Parse("2006-01", m); err == nil {
			label = t.Format("Jan 2006")
		}
		points = append(points, TimelinePoint{
			Month:      m,
			Label:      label,
			Count:      counts[m],
			Cumulative: cumulative,
		})
	}
	return points
}

func createdAt(p project.Project, now time.Time) time.Time {
	if p.CreatedAt.IsZero() {
		return now
	}
	return p.CreatedAt
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
