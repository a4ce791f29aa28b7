package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an admin-facing notification record created by the
// notify_admin action.
type Notification struct {
	ID           uuid.UUID `db:"id"`
	SuggestionID uuid.UUID `db:"suggestion_id"`
	Title        string    `db:"title"`
	Message      string    `db:"message"`
	Read         bool      `db:"read"`
	CreatedAt    time.Time `db:"created_at"`
}

// ReviewSchedule is a future-dated review created by the schedule_review
// action.
type ReviewSchedule struct {
	ID           uuid.UUID `db:"id"`
	SuggestionID uuid.UUID `db:"suggestion_id"`
	ScheduledFor time.Time `db:"scheduled_for"`
	Note         string    `db:"note"`
	Completed    bool      `db:"completed"`
	CreatedAt    time.Time `db:"created_at"`
}

// Task statuses for admin tasks
const (
	TaskOpen = "open"
	TaskDone = "done"
)

// AdminTask is a work item created by the create_task action.
type AdminTask struct {
	ID           uuid.UUID `db:"id"`
	SuggestionID uuid.UUID `db:"suggestion_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Priority     int       `db:"priority"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}
