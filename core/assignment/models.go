package assignment

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/grade"
)

type (
	Difficulty string
	Status     string
)

// Difficulties
const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Statuses
const (
	StatusPending        Status = "Pending"
	StatusSubmitted      Status = "Submitted"
	StatusLateSubmission Status = "Late Submission"
	StatusGraded         Status = "Graded"
)

// DateLayout is the layout of deadlines.
const DateLayout = "2006-01-02"

var (
	AllDifficulties = []Difficulty{Easy, Medium, Hard}

	// accepted deadline layouts, tried in order
	deadlineLayouts = []string{
		DateLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	// errors
	ErrNotFound        = core.NewError(core.ErrNotFound, "assignment not found")
	ErrInvalidDeadline = core.NewError(core.ErrInvalidInput, "deadline must be a date (YYYY-MM-DD) or a timestamp")
	ErrContentTooLong  = core.NewError(core.ErrInvalidInput, "submission content is too long")
	ErrLateSubmission  = core.NewError(core.ErrStateConflict, "submission recorded after the deadline")
	ErrNoSubmission    = core.NewError(core.ErrStateConflict, "student has no submission for this assignment")
)

func (d Difficulty) IsValid() bool {
	for _, diff := range AllDifficulties {
		if d == diff {
			return true
		}
	}
	return false
}

// ParseDeadline parses a date or a timestamp and truncates it to midnight UTC of its calendar date.
func ParseDeadline(s string) (time.Time, error) {
	s = core.CleanString(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, ErrInvalidDeadline
}

// DateOf returns the calendar date of `t`, as seen in `t`'s location, at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Submission struct {
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submission_date"`
	IsLate      bool      `json:"is_late"`
}

type Assignment struct {
	ID          int                `json:"id"`
	TeacherID   int                `json:"teacher_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Deadline    time.Time          `json:"deadline"` // midnight UTC
	Subject     string             `json:"subject"`
	ClassID     string             `json:"class_id"`
	Difficulty  Difficulty         `json:"difficulty"`
	Status      Status             `json:"status"` // status of the last event
	Submissions map[int]Submission `json:"submissions"`
	Grades      map[int]int        `json:"grades"`
}

// IsLate reports whether the calendar date of `at` is strictly after the deadline.
func (a Assignment) IsLate(at time.Time) bool {
	return DateOf(at).After(a.Deadline)
}

// AddSubmission records the student's submission, replacing any previous one.
func (a *Assignment) AddSubmission(studentID int, content string, at time.Time) Submission {
	sub := Submission{Content: content, SubmittedAt: at, IsLate: a.IsLate(at)}
	if a.Submissions == nil {
		a.Submissions = make(map[int]Submission)
	}
	a.Submissions[studentID] = sub
	if sub.IsLate {
		a.Status = StatusLateSubmission
	} else {
		a.Status = StatusSubmitted
	}
	return sub
}

// SetGrade grades the student's submission.
func (a *Assignment) SetGrade(studentID, value int) error {
	if _, ok := a.Submissions[studentID]; !ok {
		return ErrNoSubmission
	}
	if err := grade.ValidateValue(value); err != nil {
		return err
	}
	if a.Grades == nil {
		a.Grades = make(map[int]int)
	}
	a.Grades[studentID] = value
	a.Status = StatusGraded
	return nil
}

// SubmissionStatus derives the student's status for this assignment.
func (a Assignment) SubmissionStatus(studentID int) Status {
	if _, ok := a.Grades[studentID]; ok {
		return StatusGraded
	}
	sub, ok := a.Submissions[studentID]
	switch {
	case !ok:
		return StatusPending
	case sub.IsLate:
		return StatusLateSubmission
	default:
		return StatusSubmitted
	}
}

// RemoveStudent purges the student's submission and grade. Reports whether anything was removed.
func (a *Assignment) RemoveStudent(studentID int) bool {
	_, hasSub := a.Submissions[studentID]
	_, hasGrade := a.Grades[studentID]
	delete(a.Submissions, studentID)
	delete(a.Grades, studentID)
	return hasSub || hasGrade
}

// Info returns a flattened, export-ready snapshot of the assignment.
func (a Assignment) Info() map[string]interface{} {
	subs := make(map[string]Submission, len(a.Submissions))
	for id, sub := range a.Submissions {
		subs[strconv.Itoa(id)] = sub
	}
	grades := make(map[string]int, len(a.Grades))
	for id, value := range a.Grades {
		grades[strconv.Itoa(id)] = value
	}
	subsJSON, _ := json.Marshal(subs)
	gradesJSON, _ := json.Marshal(grades)

	return map[string]interface{}{
		"id":          a.ID,
		"teacher_id":  a.TeacherID,
		"title":       a.Title,
		"description": a.Description,
		"deadline":    a.Deadline.Format(DateLayout),
		"subject":     a.Subject,
		"class_id":    a.ClassID,
		"difficulty":  string(a.Difficulty),
		"status":      string(a.Status),
		"submissions": string(subsJSON),
		"grades":      string(gradesJSON),
	}
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	c := a
	c.Submissions = make(map[int]Submission, len(a.Submissions))
	for id, sub := range a.Submissions {
		c.Submissions[id] = sub
	}
	c.Grades = make(map[int]int, len(a.Grades))
	for id, value := range a.Grades {
		c.Grades[id] = value
	}
	return c
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	TeacherID   int        `json:"teacher_id"`
	Title       string     `json:"title" validate:"required,notblank"`
	Description string     `json:"description"`
	Deadline    string     `json:"deadline" validate:"required"` // "YYYY-MM-DD" or a timestamp
	Subject     string     `json:"subject" validate:"required,notblank"`
	ClassID     string     `json:"class_id" validate:"required,notblank"`
	Difficulty  Difficulty `json:"difficulty" validate:"required,difficulty"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Subject = core.CleanString(na.Subject)
	na.ClassID = core.CleanString(na.ClassID)
	return core.ValidateStruct(na)
}

// Build validates `na` and returns the Assignment it describes, without an ID.
func (na NewAssignment) Build() (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	deadline, err := ParseDeadline(na.Deadline)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{
		TeacherID:   na.TeacherID,
		Title:       na.Title,
		Description: na.Description,
		Deadline:    deadline,
		Subject:     na.Subject,
		ClassID:     na.ClassID,
		Difficulty:  na.Difficulty,
		Status:      StatusPending,
		Submissions: make(map[int]Submission),
		Grades:      make(map[int]int),
	}, nil
}
