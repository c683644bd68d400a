package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type TimeLog struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	TaskID          uuid.UUID  `db:"task_id" json:"task_id"`
	SubtaskID       *uuid.UUID `db:"subtask_id" json:"subtask_id"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         *time.Time `db:"end_time" json:"end_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Description     string     `db:"description" json:"description"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// IsRunning is true for a log that has not been stopped.
func (l *TimeLog) IsRunning() bool {
	return l.EndTime == nil
}

func (l *TimeLog) DurationHours() float64 {
	return MinutesToHours(l.DurationMinutes)
}

// ElapsedMinutes is the whole number of minutes between start and end,
// rounded down and never negative.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func MinutesToHours(minutes int) float64 {
	return float64(minutes) / 60.0
}

// Round2 rounds to two decimal places for reported figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
