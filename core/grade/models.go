package grade

import (
	"time"

	"github.com/eduplatform/backend/core"
)

// Grade scale
const (
	MinValue = 1
	MaxValue = 5
)

var (
	// errors
	ErrInvalidValue = core.NewError(core.ErrInvalidInput, "grade must be between 1 and 5")
)

// Grade is an entry of the grade ledger. Entries are never mutated.
type Grade struct {
	ID        int       `json:"id"`
	StudentID int       `json:"student_id"`
	Subject   string    `json:"subject"`
	Value     int       `json:"value"`
	TeacherID int       `json:"teacher_id"`
	Date      time.Time `json:"date"` // UTC
	Comment   string    `json:"comment"`
}

func ValidateValue(value int) error {
	if value < MinValue || value > MaxValue {
		return ErrInvalidValue
	}
	return nil
}

// CalculateAverage returns the arithmetic mean of `values`, 0 when empty.
func CalculateAverage(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func (g Grade) Info() map[string]interface{} {
	return map[string]interface{}{
		"id":         g.ID,
		"student_id": g.StudentID,
		"subject":    g.Subject,
		"value":      g.Value,
		"teacher_id": g.TeacherID,
		"date":       g.Date.Format(time.RFC3339),
		"comment":    g.Comment,
	}
}

type Repository interface {
	CreateGrade(g Grade) (Grade, error)
	// QueryAllGrades returns the ledger in insertion order.
	QueryAllGrades() ([]Grade, error)
	FilterGrades(filter QueryFilter) ([]Grade, error)
	// DeleteGrades removes every ledger entry matching `filter` and returns how many were removed.
	DeleteGrades(filter QueryFilter) (int, error)
}

// QueryFilter selects ledger entries. Zero fields match everything.
type QueryFilter struct {
	StudentID int
	TeacherID int
	Subject   string
}

func (qf QueryFilter) Match(g Grade) bool {
	return (qf.StudentID == 0 || g.StudentID == qf.StudentID) &&
		(qf.TeacherID == 0 || g.TeacherID == qf.TeacherID) &&
		(qf.Subject == "" || g.Subject == qf.Subject)
}
