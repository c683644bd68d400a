package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
)

// Period is a fixed-width lookback window ending now. Windows are not
// aligned to calendar boundaries.
type Period struct {
	Name   string
	Window time.Duration
}

const day = 24 * time.Hour

var periods = map[string]time.Duration{
	"day":   day,
	"week":  7 * day,
	"month": 30 * day,
	"year":  365 * day,
}

// ParsePeriod maps day, week, month or year to its window. Empty means week.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		s = "week"
	}
	window, ok := periods[s]
	if !ok {
		return Period{}, validation("invalid period %q: must be one of day, week, month, year", s)
	}
	return Period{Name: s, Window: window}, nil
}

var openStatuses = []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusReview}

// ReportService computes dashboards and analytics. Every figure is read
// fresh; nothing is cached between calls.
type ReportService struct {
	store *repository.Store
	clock Clock
}

func NewReportService(store *repository.Store, clock Clock) *ReportService {
	return &ReportService{store: store, clock: clock}
}

type Performer struct {
	UserID         uuid.UUID
	Name           string
	Email          string
	CompletedTasks int
}

type AdminDashboard struct {
	TotalUsers      int
	ActiveUsers     int
	UsersByRole     map[string]int
	TotalTasks      int
	ActiveTasks     int
	CompletedTasks  int
	OverdueTasks    int
	TotalHours      float64
	TasksByStatus   map[string]int
	TasksByPriority map[string]int
	RecentTasks     []*models.Task
	TopPerformers   []Performer
	OverdueList     []*models.Task
}

func (s *ReportService) AdminDashboard(ctx context.Context, actor *Actor) (*AdminDashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	d := &AdminDashboard{}

	var err error
	if d.TotalUsers, err = s.store.Users.Count(ctx, repository.UserFilter{}); err != nil {
		return nil, storage("count users", err)
	}
	active := true
	if d.ActiveUsers, err = s.store.Users.Count(ctx, repository.UserFilter{IsActive: &active}); err != nil {
		return nil, storage("count users", err)
	}
	if d.UsersByRole, err = s.store.Users.CountByRole(ctx); err != nil {
		return nil, storage("count users by role", err)
	}

	counts := []struct {
		dst    *int
		filter repository.TaskFilter
	}{
		{&d.TotalTasks, repository.TaskFilter{}},
		{&d.ActiveTasks, repository.TaskFilter{Statuses: openStatuses}},
		{&d.CompletedTasks, repository.TaskFilter{Statuses: []models.TaskStatus{models.StatusCompleted}}},
		{&d.OverdueTasks, repository.TaskFilter{OverdueAt: &now}},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Tasks.Count(ctx, c.filter); err != nil {
			return nil, storage("count tasks", err)
		}
	}

	if d.TasksByStatus, err = s.store.Tasks.CountByStatus(ctx, repository.TaskFilter{}); err != nil {
		return nil, storage("count tasks by status", err)
	}
	if d.TasksByPriority, err = s.store.Tasks.CountByPriority(ctx, repository.TaskFilter{}); err != nil {
		return nil, storage("count tasks by priority", err)
	}

	minutes, err := s.store.TimeLogs.SumMinutes(ctx, repository.TimeLogFilter{})
	if err != nil {
		return nil, storage("sum hours", err)
	}
	d.TotalHours = models.Round2(models.MinutesToHours(minutes))

	if d.RecentTasks, err = s.store.Tasks.List(ctx, repository.TaskFilter{}, repository.Page{Limit: 10, SortBy: "updated_at", SortDesc: true}); err != nil {
		return nil, storage("list recent tasks", err)
	}
	if d.OverdueList, err = s.store.Tasks.List(ctx, repository.TaskFilter{OverdueAt: &now}, repository.Page{Limit: 10, SortBy: "due_date"}); err != nil {
		return nil, storage("list overdue tasks", err)
	}
	if d.TopPerformers, err = s.topPerformers(ctx, 5); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *ReportService) topPerformers(ctx context.Context, limit int) ([]Performer, error) {
	completed := repository.TaskFilter{Statuses: []models.TaskStatus{models.StatusCompleted}}
	byAssignee, err := s.store.Tasks.CountByAssignee(ctx, completed)
	if err != nil {
		return nil, storage("count completed by assignee", err)
	}
	users, err := s.loadUsers(ctx, byAssignee)
	if err != nil {
		return nil, err
	}

	performers := make([]Performer, 0, len(users))
	for id, u := range users {
		performers = append(performers, Performer{
			UserID:         id,
			Name:           u.FullName(),
			Email:          u.Email,
			CompletedTasks: byAssignee[id.String()],
		})
	}
	sort.Slice(performers, func(i, j int) bool {
		if performers[i].CompletedTasks != performers[j].CompletedTasks {
			return performers[i].CompletedTasks > performers[j].CompletedTasks
		}
		return performers[i].Name < performers[j].Name
	})
	if len(performers) > limit {
		performers = performers[:limit]
	}
	return performers, nil
}

// loadUsers resolves the user ids that key the given maps.
func (s *ReportService) loadUsers(ctx context.Context, keyed ...map[string]int) (map[uuid.UUID]*models.User, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, m := range keyed {
		for key := range m {
			id, err := uuid.Parse(key)
			if err != nil || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	users, err := s.store.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, storage("load users", err)
	}
	return users, nil
}

type UserTaskSummary struct {
	User           *models.User
	TotalAssigned  int
	CompletedTasks int
	PendingTasks   int
	OverdueTasks   int
	HoursLogged    float64
	CurrentTasks   []*models.Task
}

// UserTaskSummary is the admin view of one user's workload.
func (s *ReportService) UserTaskSummary(ctx context.Context, actor *Actor, userID uuid.UUID) (*UserTaskSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user", "get user")
	}

	now := s.clock.Now()
	sum := &UserTaskSummary{User: user}
	assigned := func(f repository.TaskFilter) repository.TaskFilter {
		f.AssigneeID = &userID
		return f
	}

	counts := []struct {
		dst    *int
		filter repository.TaskFilter
	}{
		{&sum.TotalAssigned, assigned(repository.TaskFilter{})},
		{&sum.CompletedTasks, assigned(repository.TaskFilter{Statuses: []models.TaskStatus{models.StatusCompleted}})},
		{&sum.PendingTasks, assigned(repository.TaskFilter{Statuses: openStatuses})},
		{&sum.OverdueTasks, assigned(repository.TaskFilter{OverdueAt: &now})},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Tasks.Count(ctx, c.filter); err != nil {
			return nil, storage("count tasks", err)
		}
	}

	minutes, err := s.store.TimeLogs.SumMinutes(ctx, repository.TimeLogFilter{UserID: &userID})
	if err != nil {
		return nil, storage("sum hours", err)
	}
	sum.HoursLogged = models.Round2(models.MinutesToHours(minutes))

	current := assigned(repository.TaskFilter{Statuses: openStatuses})
	if sum.CurrentTasks, err = s.store.Tasks.List(ctx, current, repository.Page{Limit: 10, SortBy: "updated_at", SortDesc: true}); err != nil {
		return nil, storage("list current tasks", err)
	}
	return sum, nil
}

type ProfileSummary struct {
	User           *models.User
	TasksCreated   int
	TasksAssigned  int
	TasksCompleted int
	HoursLogged    float64
}

// ProfileSummary is the actor's own profile with lifetime totals.
func (s *ReportService) ProfileSummary(ctx context.Context, actor *Actor) (*ProfileSummary, error) {
	id := actor.ID()
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", "get user")
	}

	p := &ProfileSummary{User: user}
	counts := []struct {
		dst    *int
		filter repository.TaskFilter
	}{
		{&p.TasksCreated, repository.TaskFilter{AuthorID: &id}},
		{&p.TasksAssigned, repository.TaskFilter{AssigneeID: &id}},
		{&p.TasksCompleted, repository.TaskFilter{AssigneeID: &id, Statuses: []models.TaskStatus{models.StatusCompleted}}},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Tasks.Count(ctx, c.filter); err != nil {
			return nil, storage("count tasks", err)
		}
	}

	minutes, err := s.store.TimeLogs.SumMinutes(ctx, repository.TimeLogFilter{UserID: &id})
	if err != nil {
		return nil, storage("sum hours", err)
	}
	p.HoursLogged = models.Round2(models.MinutesToHours(minutes))
	return p, nil
}

type DashboardSummary struct {
	TotalTasks      int
	PendingTasks    int
	InProgressTasks int
	ReviewTasks     int
	CompletedTasks  int
	OverdueTasks    int
}

type UserDashboard struct {
	Summary           DashboardSummary
	RecentTasks       []*models.Task
	UpcomingDeadlines []*models.Task
	TodayLogs         []*models.TimeLog
	HoursThisWeek     float64
}

// UserDashboard is the actor's home view. Task counts cover tasks the actor
// authored or is assigned; deadlines and hours cover the actor's own work.
func (s *ReportService) UserDashboard(ctx context.Context, actor *Actor) (*UserDashboard, error) {
	id := actor.ID()
	now := s.clock.Now()
	mine := repository.TaskFilter{ParticipantID: &id}

	byStatus, err := s.store.Tasks.CountByStatus(ctx, mine)
	if err != nil {
		return nil, storage("count tasks by status", err)
	}
	d := &UserDashboard{Summary: DashboardSummary{
		PendingTasks:    byStatus[string(models.StatusPending)],
		InProgressTasks: byStatus[string(models.StatusInProgress)],
		ReviewTasks:     byStatus[string(models.StatusReview)],
		CompletedTasks:  byStatus[string(models.StatusCompleted)],
	}}
	for _, n := range byStatus {
		d.Summary.TotalTasks += n
	}

	overdue := mine
	overdue.OverdueAt = &now
	if d.Summary.OverdueTasks, err = s.store.Tasks.Count(ctx, overdue); err != nil {
		return nil, storage("count overdue tasks", err)
	}

	if d.RecentTasks, err = s.store.Tasks.List(ctx, mine, repository.Page{Limit: 5, SortBy: "updated_at", SortDesc: true}); err != nil {
		return nil, storage("list recent tasks", err)
	}

	horizon := now.Add(7 * day)
	upcoming := repository.TaskFilter{AssigneeID: &id, Statuses: openStatuses, DueFrom: &now, DueTo: &horizon}
	if d.UpcomingDeadlines, err = s.store.Tasks.List(ctx, upcoming, repository.Page{Limit: 5, SortBy: "due_date"}); err != nil {
		return nil, storage("list upcoming deadlines", err)
	}

	today := startOfDay(now)
	tomorrow := today.Add(day)
	todayFilter := repository.TimeLogFilter{UserID: &id, From: &today, To: &tomorrow}
	if d.TodayLogs, _, err = s.store.TimeLogs.List(ctx, todayFilter, repository.Page{SortBy: "start_time", SortDesc: true}); err != nil {
		return nil, storage("list today's time logs", err)
	}

	weekStart := startOfWeek(now)
	minutes, err := s.store.TimeLogs.SumMinutes(ctx, repository.TimeLogFilter{UserID: &id, From: &weekStart})
	if err != nil {
		return nil, storage("sum hours", err)
	}
	d.HoursThisWeek = models.Round2(models.MinutesToHours(minutes))
	return d, nil
}

// Analytics are period figures. For the admin overview Tasks counts tasks
// created in the window; for personal analytics it counts tasks assigned to
// the actor that were created in the window.
type Analytics struct {
	Period             string
	StartDate          time.Time
	EndDate            time.Time
	Tasks              int
	TasksCompleted     int
	OverdueTasks       int
	HoursLogged        float64
	CompletionRate     float64
	AvgCompletionHours float64
	TasksByStatus      map[string]int
	TasksByPriority    map[string]int
}

// Analytics is the system-wide overview for admins.
func (s *ReportService) Analytics(ctx context.Context, actor *Actor, period string) (*Analytics, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.analytics(ctx, period, nil)
}

// PersonalAnalytics restricts the same figures to the actor's assigned tasks
// and own time logs.
func (s *ReportService) PersonalAnalytics(ctx context.Context, actor *Actor, period string) (*Analytics, error) {
	id := actor.ID()
	return s.analytics(ctx, period, &id)
}

func (s *ReportService) analytics(ctx context.Context, period string, userID *uuid.UUID) (*Analytics, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	start := now.Add(-p.Window)

	a := &Analytics{Period: p.Name, StartDate: start, EndDate: now}

	created := repository.TaskFilter{AssigneeID: userID, CreatedFrom: &start}
	completed := repository.TaskFilter{AssigneeID: userID, CompletedFrom: &start}
	overdue := repository.TaskFilter{AssigneeID: userID, OverdueAt: &now}

	if a.Tasks, err = s.store.Tasks.Count(ctx, created); err != nil {
		return nil, storage("count created tasks", err)
	}
	if a.TasksCompleted, err = s.store.Tasks.Count(ctx, completed); err != nil {
		return nil, storage("count completed tasks", err)
	}
	if a.OverdueTasks, err = s.store.Tasks.Count(ctx, overdue); err != nil {
		return nil, storage("count overdue tasks", err)
	}
	if a.TasksByStatus, err = s.store.Tasks.CountByStatus(ctx, created); err != nil {
		return nil, storage("count tasks by status", err)
	}
	if a.TasksByPriority, err = s.store.Tasks.CountByPriority(ctx, created); err != nil {
		return nil, storage("count tasks by priority", err)
	}

	minutes, err := s.store.TimeLogs.SumMinutes(ctx, repository.TimeLogFilter{UserID: userID, From: &start})
	if err != nil {
		return nil, storage("sum hours", err)
	}
	a.HoursLogged = models.Round2(models.MinutesToHours(minutes))
	a.CompletionRate = completionRate(a.TasksCompleted, a.Tasks)

	spans, err := s.store.Tasks.CompletionSpans(ctx, completed)
	if err != nil {
		return nil, storage("load completion spans", err)
	}
	a.AvgCompletionHours = averageCompletionHours(spans)
	return a, nil
}

type UserPerformance struct {
	UserID         uuid.UUID
	UserName       string
	Email          string
	Role           models.Role
	TotalTasks     int
	CompletedTasks int
	CompletionRate float64
	HoursLogged    float64
}

type PerformanceReport struct {
	StartDate time.Time
	EndDate   time.Time
	Users     []UserPerformance
}

// PerformanceReport ranks users by completed tasks over tasks assigned to
// them and created in [start, end). A nil start means 30 days before now and
// a nil end means now. Users with neither tasks nor hours in the window are
// left out.
func (s *ReportService) PerformanceReport(ctx context.Context, actor *Actor, start, end *time.Time) (*PerformanceReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &PerformanceReport{StartDate: now.Add(-30 * day), EndDate: now}
	if start != nil {
		report.StartDate = start.UTC()
	}
	var to *time.Time
	if end != nil {
		report.EndDate = end.UTC()
		to = &report.EndDate
	}
	if report.EndDate.Before(report.StartDate) {
		return nil, validation("end_date must not be before start_date")
	}

	window := repository.TaskFilter{CreatedFrom: &report.StartDate, CreatedTo: to}
	total, err := s.store.Tasks.CountByAssignee(ctx, window)
	if err != nil {
		return nil, storage("count tasks by assignee", err)
	}
	done := window
	done.Statuses = []models.TaskStatus{models.StatusCompleted}
	completed, err := s.store.Tasks.CountByAssignee(ctx, done)
	if err != nil {
		return nil, storage("count completed by assignee", err)
	}
	minutes, err := s.store.TimeLogs.SumMinutesByUser(ctx, repository.TimeLogFilter{From: &report.StartDate, To: to})
	if err != nil {
		return nil, storage("sum hours by user", err)
	}

	users, err := s.loadUsers(ctx, total, minutes)
	if err != nil {
		return nil, err
	}
	report.Users = make([]UserPerformance, 0, len(users))
	for id, u := range users {
		key := id.String()
		report.Users = append(report.Users, UserPerformance{
			UserID:         id,
			UserName:       u.FullName(),
			Email:          u.Email,
			Role:           u.Role,
			TotalTasks:     total[key],
			CompletedTasks: completed[key],
			CompletionRate: completionRate(completed[key], total[key]),
			HoursLogged:    models.Round2(models.MinutesToHours(minutes[key])),
		})
	}
	sort.Slice(report.Users, func(i, j int) bool {
		a, b := report.Users[i], report.Users[j]
		if a.CompletedTasks != b.CompletedTasks {
			return a.CompletedTasks > b.CompletedTasks
		}
		if a.UserName != b.UserName {
			return a.UserName < b.UserName
		}
		return a.Email < b.Email
	})
	return report, nil
}

// completionRate is completed/total as a percentage, 0 when nothing was
// created.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return models.Round2(float64(completed) / float64(total) * 100)
}

func averageCompletionHours(spans []repository.CompletionSpan) float64 {
	if len(spans) == 0 {
		return 0
	}
	var total time.Duration
	for _, span := range spans {
		total += span.CompletedAt.Sub(span.CreatedAt)
	}
	return models.Round2(total.Hours() / float64(len(spans)))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek is Monday 00:00 UTC of t's week.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.Add(-time.Duration(offset) * day)
}
