package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 7 * day},
		{in: "day", want: day},
		{in: "week", want: 7 * day},
		{in: "month", want: 30 * day},
		{in: "year", want: 365 * day},
		{in: "quarter", wantErr: true},
		{in: "WEEK", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePeriod(tt.in)
			if tt.wantErr {
				requireKind(t, err, KindValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Window)
		})
	}
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, completionRate(0, 0))
	assert.Equal(t, 50.0, completionRate(1, 2))
	assert.Equal(t, 66.67, completionRate(2, 3))
	assert.Equal(t, 100.0, completionRate(3, 3))
}

func TestStartOfWeek(t *testing.T) {
	// testEpoch is Wednesday 2025-06-11.
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), startOfWeek(testEpoch))
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, startOfWeek(monday))
	sunday := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, monday, startOfWeek(sunday))
}

// reportFixture builds a small history ending at testEpoch:
//   - "old": alice -> bob, created E-10d, completed E-9d
//   - "recent": alice -> bob, created E-2d, completed E-1d, 90 minutes logged at E-1d
//   - "late": alice -> alice, created E-2d, due E-1d, still pending
type reportFixture struct {
	env               *testEnv
	admin, alice, bob *Actor
	old, recent, late *models.Task
}

func newReportFixture(t *testing.T) *reportFixture {
	env := newTestEnv(t)
	ctx := context.Background()
	f := &reportFixture{env: env}
	f.admin = env.user("admin@example.com", models.RoleAdmin)
	f.alice = env.user("alice@example.com", models.RoleUser)
	f.bob = env.user("bob@example.com", models.RoleUser)

	env.clock.now = testEpoch.Add(-10 * day)
	f.old = env.task(f.alice, "old", f.bob)
	env.clock.Advance(day)
	_, err := env.tasks.ChangeStatus(ctx, f.bob, f.old.ID, "completed")
	require.NoError(t, err)

	env.clock.now = testEpoch.Add(-2 * day)
	f.recent = env.task(f.alice, "recent", f.bob)
	due := testEpoch.Add(-day)
	f.late, err = env.tasks.CreateTask(ctx, f.alice, CreateTaskInput{Title: "late", DueDate: &due})
	require.NoError(t, err)

	env.clock.now = testEpoch.Add(-day)
	_, err = env.tasks.ChangeStatus(ctx, f.bob, f.recent.ID, "completed")
	require.NoError(t, err)
	entry, err := env.timeLogs.Start(ctx, f.bob, StartTimerInput{TaskID: f.recent.ID})
	require.NoError(t, err)
	env.clock.Advance(90 * time.Minute)
	_, err = env.timeLogs.Stop(ctx, f.bob, entry.ID)
	require.NoError(t, err)

	env.clock.now = testEpoch
	return f
}

func TestReportService_Analytics(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	t.Run("week", func(t *testing.T) {
		a, err := f.env.reports.Analytics(ctx, f.admin, "week")
		require.NoError(t, err)
		assert.Equal(t, "week", a.Period)
		assert.True(t, a.StartDate.Equal(testEpoch.Add(-7*day)))
		assert.True(t, a.EndDate.Equal(testEpoch))
		assert.Equal(t, 2, a.Tasks)
		assert.Equal(t, 1, a.TasksCompleted)
		assert.Equal(t, 1, a.OverdueTasks)
		assert.Equal(t, 1.5, a.HoursLogged)
		assert.Equal(t, 50.0, a.CompletionRate)
		assert.Equal(t, 24.0, a.AvgCompletionHours)
		assert.Equal(t, map[string]int{"completed": 1, "pending": 1}, a.TasksByStatus)
	})

	t.Run("year", func(t *testing.T) {
		a, err := f.env.reports.Analytics(ctx, f.admin, "year")
		require.NoError(t, err)
		assert.Equal(t, 3, a.Tasks)
		assert.Equal(t, 2, a.TasksCompleted)
		assert.Equal(t, 66.67, a.CompletionRate)
		assert.Equal(t, 24.0, a.AvgCompletionHours)
	})

	t.Run("day has nothing", func(t *testing.T) {
		a, err := f.env.reports.Analytics(ctx, f.admin, "day")
		require.NoError(t, err)
		assert.Equal(t, 0, a.Tasks)
		assert.Equal(t, 0.0, a.CompletionRate, "no tasks created in the window")
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := f.env.reports.Analytics(ctx, f.alice, "week")
		requireKind(t, err, KindForbidden)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := f.env.reports.Analytics(ctx, f.admin, "fortnight")
		requireKind(t, err, KindValidation)
	})
}

func TestReportService_AnalyticsSkipsReopenedTasks(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	reopened, err := f.env.tasks.ReassignByEmail(ctx, f.alice, f.recent.ID, f.alice.Email())
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, reopened.Status)
	require.NotNil(t, reopened.CompletedAt)

	week, err := f.env.reports.Analytics(ctx, f.admin, "week")
	require.NoError(t, err)
	assert.Equal(t, 2, week.Tasks)
	assert.Equal(t, 0, week.TasksCompleted)
	assert.Equal(t, 0.0, week.CompletionRate)
	assert.Equal(t, 0.0, week.AvgCompletionHours)

	year, err := f.env.reports.Analytics(ctx, f.admin, "year")
	require.NoError(t, err)
	assert.Equal(t, 1, year.TasksCompleted)
	assert.Equal(t, 24.0, year.AvgCompletionHours)
}

func TestReportService_PersonalAnalytics(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	bob, err := f.env.reports.PersonalAnalytics(ctx, f.bob, "")
	require.NoError(t, err)
	assert.Equal(t, "week", bob.Period)
	assert.Equal(t, 1, bob.Tasks)
	assert.Equal(t, 1, bob.TasksCompleted)
	assert.Equal(t, 100.0, bob.CompletionRate)
	assert.Equal(t, 1.5, bob.HoursLogged)
	assert.Equal(t, 0, bob.OverdueTasks)

	alice, err := f.env.reports.PersonalAnalytics(ctx, f.alice, "week")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Tasks)
	assert.Equal(t, 0, alice.TasksCompleted)
	assert.Equal(t, 0.0, alice.CompletionRate)
	assert.Equal(t, 0.0, alice.HoursLogged)
	assert.Equal(t, 1, alice.OverdueTasks)
}

func TestReportService_EmptySystem(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user("admin@example.com", models.RoleAdmin)

	a, err := env.reports.Analytics(context.Background(), admin, "month")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Tasks)
	assert.Equal(t, 0, a.TasksCompleted)
	assert.Equal(t, 0.0, a.CompletionRate)
	assert.Equal(t, 0.0, a.AvgCompletionHours)
	assert.Equal(t, 0.0, a.HoursLogged)

	d, err := env.reports.AdminDashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 0, d.TotalTasks)
	assert.Empty(t, d.TopPerformers)
}

func TestReportService_AdminDashboard(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	d, err := f.env.reports.AdminDashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalUsers)
	assert.Equal(t, 3, d.ActiveUsers)
	assert.Equal(t, map[string]int{"admin": 1, "user": 2}, d.UsersByRole)
	assert.Equal(t, 3, d.TotalTasks)
	assert.Equal(t, 1, d.ActiveTasks)
	assert.Equal(t, 2, d.CompletedTasks)
	assert.Equal(t, 1, d.OverdueTasks)
	assert.Equal(t, 1.5, d.TotalHours)
	assert.Equal(t, map[string]int{"completed": 2, "pending": 1}, d.TasksByStatus)
	assert.Equal(t, map[string]int{"medium": 3}, d.TasksByPriority)
	assert.Len(t, d.RecentTasks, 3)

	require.Len(t, d.TopPerformers, 1)
	assert.Equal(t, f.bob.ID(), d.TopPerformers[0].UserID)
	assert.Equal(t, 2, d.TopPerformers[0].CompletedTasks)

	require.Len(t, d.OverdueList, 1)
	assert.Equal(t, f.late.ID, d.OverdueList[0].ID)

	_, err = f.env.reports.AdminDashboard(ctx, f.bob)
	requireKind(t, err, KindForbidden)
}

func TestReportService_UserTaskSummary(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	bob, err := f.env.reports.UserTaskSummary(ctx, f.admin, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, bob.TotalAssigned)
	assert.Equal(t, 2, bob.CompletedTasks)
	assert.Equal(t, 0, bob.PendingTasks)
	assert.Equal(t, 0, bob.OverdueTasks)
	assert.Equal(t, 1.5, bob.HoursLogged)
	assert.Empty(t, bob.CurrentTasks)

	alice, err := f.env.reports.UserTaskSummary(ctx, f.admin, f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalAssigned)
	assert.Equal(t, 1, alice.PendingTasks)
	assert.Equal(t, 1, alice.OverdueTasks)
	require.Len(t, alice.CurrentTasks, 1)
	assert.Equal(t, f.late.ID, alice.CurrentTasks[0].ID)

	_, err = f.env.reports.UserTaskSummary(ctx, f.alice, f.bob.ID())
	requireKind(t, err, KindForbidden)
}

func TestReportService_PerformanceReport(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.env.reports.PerformanceReport(ctx, f.admin, nil, nil)
	require.NoError(t, err)
	assert.True(t, report.StartDate.Equal(testEpoch.Add(-30*day)))
	require.Len(t, report.Users, 2)

	assert.Equal(t, f.bob.ID(), report.Users[0].UserID)
	assert.Equal(t, 2, report.Users[0].TotalTasks)
	assert.Equal(t, 2, report.Users[0].CompletedTasks)
	assert.Equal(t, 100.0, report.Users[0].CompletionRate)
	assert.Equal(t, 1.5, report.Users[0].HoursLogged)
	assert.Equal(t, models.RoleUser, report.Users[0].Role)

	assert.Equal(t, f.alice.ID(), report.Users[1].UserID)
	assert.Equal(t, 1, report.Users[1].TotalTasks)
	assert.Equal(t, 0.0, report.Users[1].CompletionRate)

	start := testEpoch.Add(-5 * day)
	report, err = f.env.reports.PerformanceReport(ctx, f.admin, &start, nil)
	require.NoError(t, err)
	require.Len(t, report.Users, 2)
	assert.Equal(t, 1, report.Users[0].TotalTasks)

	end := testEpoch.Add(-20 * day)
	_, err = f.env.reports.PerformanceReport(ctx, f.admin, &start, &end)
	requireKind(t, err, KindValidation)
}

func TestReportService_UserDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.user("bob@example.com", models.RoleUser)
	env.clock.now = testEpoch

	soon := testEpoch.Add(3 * day)
	later := testEpoch.Add(10 * day)
	past := testEpoch.Add(-time.Hour)
	var tasks []*models.Task
	for _, in := range []CreateTaskInput{
		{Title: "Soon", DueDate: &soon},
		{Title: "Later", DueDate: &later},
		{Title: "Past", DueDate: &past},
	} {
		task, err := env.tasks.CreateTask(ctx, bob, in)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	logAt := func(start time.Time, minutes int) {
		env.clock.now = start
		entry, err := env.timeLogs.Start(ctx, bob, StartTimerInput{TaskID: tasks[0].ID})
		require.NoError(t, err)
		env.clock.Advance(time.Duration(minutes) * time.Minute)
		_, err = env.timeLogs.Stop(ctx, bob, entry.ID)
		require.NoError(t, err)
	}
	logAt(time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC), 30) // Sunday, previous week
	logAt(time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC), 60)  // Monday
	logAt(testEpoch.Add(-2*time.Hour), 45)                  // today
	env.clock.now = testEpoch

	d, err := env.reports.UserDashboard(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Summary.TotalTasks)
	assert.Equal(t, 3, d.Summary.PendingTasks)
	assert.Equal(t, 1, d.Summary.OverdueTasks)
	assert.Len(t, d.RecentTasks, 3)

	require.Len(t, d.UpcomingDeadlines, 1)
	assert.Equal(t, "Soon", d.UpcomingDeadlines[0].Title)

	require.Len(t, d.TodayLogs, 1)
	assert.Equal(t, 45, d.TodayLogs[0].DurationMinutes)
	assert.Equal(t, 1.75, d.HoursThisWeek)

	p, err := env.reports.ProfileSummary(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TasksCreated)
	assert.Equal(t, 3, p.TasksAssigned)
	assert.Equal(t, 0, p.TasksCompleted)
	assert.Equal(t, 2.25, p.HoursLogged)
}
