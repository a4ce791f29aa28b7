package content

import (
	"time"
)

// Status of a content item
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Item represents an article in the content store. The engine treats items
// as read-only; status changes happen through the store's own surfaces.
type Item struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Excerpt   string    `db:"excerpt"`
	Category  string    `db:"category"`
	Status    string    `db:"status"`
	Views     int64     `db:"views"`
	ImageURL  string    `db:"image_url"`
	CreatedAt time.Time `db:"created_at"`
}

// AgeDays returns the item age in fractional days at the given reference time.
func (i *Item) AgeDays(now time.Time) float64 {
	age := now.Sub(i.CreatedAt).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

// IsPublished reports whether the item is publicly visible.
func (i *Item) IsPublished() bool {
	return i.Status == StatusPublished
}
