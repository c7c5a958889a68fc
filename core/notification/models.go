package notification

import (
	"time"

	"github.com/eduplatform/backend/core"
)

// Priorities
const (
	PriorityNormal    = "normal"
	PriorityImportant = "important"
)

var ErrNotFound = core.NewError(core.ErrNotFound, "notification not found")

type Notification struct {
	ID          int       `json:"id"`
	Message     string    `json:"message"`
	RecipientID int       `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
	Priority    string    `json:"priority"`
}

// New returns an unread Notification for the recipient. The priority is stored lower-cased.
func New(recipientID int, message, priority string, now time.Time) Notification {
	priority = core.CleanString(priority, true /* lower */)
	if priority == "" {
		priority = PriorityNormal
	}
	return Notification{
		Message:     message,
		RecipientID: recipientID,
		CreatedAt:   now,
		Priority:    priority,
	}
}

func (n *Notification) MarkAsRead() { n.IsRead = true }

// Filter narrows down an Inbox.
type Filter struct {
	UnreadOnly bool
	Priority   string // case-insensitive
}

// Inbox is a user's notifications, in insertion order.
type Inbox []Notification

// Filter returns the notifications matching `f`, in insertion order.
func (in Inbox) Filter(f Filter) []Notification {
	priority := core.CleanString(f.Priority, true /* lower */)
	res := make([]Notification, 0, len(in))
	for _, n := range in {
		if f.UnreadOnly && n.IsRead {
			continue
		}
		if priority != "" && n.Priority != priority {
			continue
		}
		res = append(res, n)
	}
	return res
}

func (in Inbox) MarkAsRead(id int) error {
	for i := range in {
		if in[i].ID == id {
			in[i].MarkAsRead()
			return nil
		}
	}
	return ErrNotFound
}

// Delete returns the Inbox without the notification `id`.
func (in Inbox) Delete(id int) (Inbox, error) {
	for i, n := range in {
		if n.ID == id {
			res := make(Inbox, 0, len(in)-1)
			res = append(res, in[:i]...)
			return append(res, in[i+1:]...), nil
		}
	}
	return in, ErrNotFound
}

func (in Inbox) Clone() Inbox {
	if in == nil {
		return nil
	}
	res := make(Inbox, len(in))
	copy(res, in)
	return res
}
