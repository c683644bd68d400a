package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Build User Dashboard!!", "build-user-dashboard"},
		{"  Fix   login\tbug ", "fix-login-bug"},
		{"Release v2.0 - final", "release-v20-final"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", "task"},
		{"", "task"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestProgressPercentage(t *testing.T) {
	want := map[TaskStatus]int{
		StatusPending:    0,
		StatusInProgress: 50,
		StatusReview:     75,
		StatusCompleted:  100,
		StatusCancelled:  0,
	}
	for _, status := range TaskStatuses {
		task := &Task{Status: status}
		assert.Equal(t, want[status], task.ProgressPercentage(), status)
		assert.Contains(t, []int{0, 50, 75, 100}, task.ProgressPercentage())
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	// Same instant as past, expressed in a non-UTC zone.
	pastOffset := past.In(time.FixedZone("UTC+3", 3*3600))

	tests := []struct {
		name   string
		due    *time.Time
		status TaskStatus
		want   bool
	}{
		{"no due date", nil, StatusPending, false},
		{"due in past", &past, StatusInProgress, true},
		{"due in past with offset", &pastOffset, StatusPending, true},
		{"due in future", &future, StatusPending, false},
		{"completed never overdue", &past, StatusCompleted, false},
		{"cancelled past due is overdue", &past, StatusCancelled, true},
		{"due exactly now", &now, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{DueDate: tt.due, Status: tt.status}
			assert.Equal(t, tt.want, task.IsOverdue(now))
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusReview, true},
		{StatusReview, StatusCompleted, true},
		{StatusPending, StatusCompleted, true},
		{StatusReview, StatusInProgress, true},
		{StatusInProgress, StatusPending, false},
		{StatusPending, StatusCancelled, true},
		{StatusReview, StatusCancelled, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseEnums(t *testing.T) {
	status, err := ParseTaskStatus(" In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)

	_, err = ParseTaskStatus("done")
	assert.Error(t, err)

	priority, err := ParseTaskPriority("URGENT")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, priority)

	_, err = ParseTaskType("epic")
	assert.Error(t, err)

	role, err := ParseRole("Manager")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, role)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, ElapsedMinutes(start, start.Add(125*time.Second)))
	assert.Equal(t, 90, ElapsedMinutes(start, start.Add(90*time.Minute)))
	assert.Equal(t, 0, ElapsedMinutes(start, start.Add(59*time.Second)))
	assert.Equal(t, 0, ElapsedMinutes(start, start.Add(-time.Minute)))

	log := &TimeLog{DurationMinutes: 90}
	assert.Equal(t, 1.5, log.DurationHours())
}

func TestTask_Helpers(t *testing.T) {
	author, assignee := uuid.New(), uuid.New()
	task := &Task{AuthorID: author, AssigneeID: assignee, Tags: "backend, api,, urgent "}

	assert.True(t, task.IsParticipant(author))
	assert.True(t, task.IsParticipant(assignee))
	assert.False(t, task.IsParticipant(uuid.New()))
	assert.Equal(t, []string{"backend", "api", "urgent"}, task.TagList())
}
