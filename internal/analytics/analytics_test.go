package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/project"
)

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func proj(status project.Status, created time.Time) project.Project {
	return project.Project{Title: "p", Status: status, CreatedAt: created}
}

func sampleProjects() []project.Project {
	return []project.Project{
		proj(project.StatusCompleted, now.AddDate(0, 0, -2)),
		proj(project.StatusCompleted, now.AddDate(0, 0, -40)),
		proj(project.StatusInProgress, now.AddDate(0, 0, -10)),
		proj(project.StatusPlanning, now.AddDate(0, -3, 0)),
		proj(project.StatusOnHold, now.AddDate(-1, 0, 0)),
		proj("", time.Time{}),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleProjects(), now)

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 1, s.Planning)
	assert.Equal(t, 0, s.Testing)
	assert.Equal(t, 1, s.OnHold)
	assert.Equal(t, 0, s.Cancelled)
	assert.Equal(t, 33.3, s.CompletionRate)
	assert.Equal(t, 3, s.Recent, "two dated within 30 days plus one undated")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.CompletionRate)
}

func TestStatusDistribution(t *testing.T) {
	dist := StatusDistribution(sampleProjects())

	require.Len(t, dist, 5)

	statuses := make([]string, len(dist))
	for i, d := range dist {
		statuses[i] = d.Status
	}
	assert.Equal(t, []string{"Planning", "In Progress", "Completed", "On Hold", NotStarted}, statuses)

	completed := dist[2]
	assert.Equal(t, 2, completed.Count)
	assert.Equal(t, 33.3, completed.Percent)
	assert.Equal(t, "#10B981", completed.Color)

	notStarted := dist[4]
	assert.Equal(t, 1, notStarted.Count)
	assert.Equal(t, 16.7, notStarted.Percent)
	assert.Equal(t, defaultColor, notStarted.Color)
}

func TestStatusDistribution_Empty(t *testing.T) {
	assert.Empty(t, StatusDistribution(nil))
}

func TestTimeline(t *testing.T) {
	projects := []project.Project{
		proj(project.StatusPlanning, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)),
		proj(project.StatusPlanning, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
		proj(project.StatusPlanning, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)),
		proj(project.StatusPlanning, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
	}

	t.Run("unlimited history", func(t *testing.T) {
		points := Timeline(projects, now, plan.Unlimited)

		require.Len(t, points, 3)
		assert.Equal(t, TimelinePoint{Month: "2025-01", Label: "Jan 2025", Count: 1, Cumulative: 1}, points[0])
		assert.Equal(t, TimelinePoint{Month: "2026-08", Label: "Aug 2026", Count: 1, Cumulative: 2}, points[1])
		assert.Equal(t, TimelinePoint{Month: "2026-10", Label: "Oct 2026", Count: 2, Cumulative: 4}, points[2])
	})

	t.Run("free window of 7 days", func(t *testing.T) {
		points := Timeline(projects, now, plan.Free.Limits.AnalyticsHistoryDays)

		require.Len(t, points, 1)
		assert.Equal(t, 1, points[0].Count)
		assert.Equal(t, 1, points[0].Cumulative)
	})

	t.Run("pro window of 30 days", func(t *testing.T) {
		points := Timeline(projects, now, plan.Pro.Limits.AnalyticsHistoryDays)

		require.Len(t, points, 1)
		assert.Equal(t, 2, points[0].Count)
	})

	t.Run("enterprise window of a year", func(t *testing.T) {
		points := Timeline(projects, now, plan.Enterprise.Limits.AnalyticsHistoryDays)

		require.Len(t, points, 2)
		assert.Equal(t, 3, points[1].Cumulative)
	})
}

func TestBuild(t *testing.T) {
	r := Build(sampleProjects(), plan.Free, now)

	assert.Equal(t, 6, r.Stats.Total)
	assert.Len(t, r.Distribution, 5)
	assert.Equal(t, plan.Free.Limits.AnalyticsHistoryDays, r.HistoryDays)
	require.Len(t, r.Timeline, 1)
	assert.Equal(t, 2, r.Timeline[0].Count, "one dated two days ago plus one undated")
}
