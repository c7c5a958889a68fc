package schedule

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/eduplatform/backend/core"
)

var (
	// errors
	ErrNotFound     = core.NewError(core.ErrNotFound, "schedule not found")
	ErrExists       = core.NewError(core.ErrDuplicate, "a schedule already exists for this class and day")
	ErrInvalidTime  = core.NewError(core.ErrInvalidInput, "time must be in the HH:MM 24-hour format")
	ErrTimeConflict = core.NewError(core.ErrDuplicate, "time slot already taken")
	ErrNoLesson     = core.NewError(core.ErrNotFound, "no lesson at this time slot")
)

type Lesson struct {
	Subject   string `json:"subject"`
	TeacherID int    `json:"teacher_id"`
}

type Schedule struct {
	ID      int               `json:"id"`
	ClassID string            `json:"class_id"`
	Day     string            `json:"day"`
	Lessons map[string]Lesson `json:"lessons"` // {"HH:MM": Lesson}
}

// SameDay reports whether `day` names this schedule's day, ignoring case.
func (s Schedule) SameDay(day string) bool {
	return strings.EqualFold(s.Day, core.CleanString(day))
}

// AddLesson books `slot`. Fails if the slot is malformed or already taken in this schedule.
func (s *Schedule) AddLesson(slot, subject string, teacherID int) error {
	slot, ok := core.ParseTimeSlot(slot)
	if !ok {
		return ErrInvalidTime
	}
	if _, taken := s.Lessons[slot]; taken {
		return ErrTimeConflict
	}
	if s.Lessons == nil {
		s.Lessons = make(map[string]Lesson)
	}
	s.Lessons[slot] = Lesson{Subject: core.CleanString(subject), TeacherID: teacherID}
	return nil
}

func (s *Schedule) RemoveLesson(slot string) error {
	slot, ok := core.ParseTimeSlot(slot)
	if !ok {
		return ErrInvalidTime
	}
	if _, ok := s.Lessons[slot]; !ok {
		return ErrNoLesson
	}
	delete(s.Lessons, slot)
	return nil
}

// TeacherAt reports whether the teacher has a lesson at the canonical `slot`.
func (s Schedule) TeacherAt(teacherID int, slot string) bool {
	lesson, ok := s.Lessons[slot]
	return ok && lesson.TeacherID == teacherID
}

// Slots returns the booked time slots in chronological order.
func (s Schedule) Slots() []string {
	slots := make([]string, 0, len(s.Lessons))
	for slot := range s.Lessons {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	return slots
}

// Info returns a flattened, export-ready snapshot of the schedule.
func (s Schedule) Info() map[string]interface{} {
	lessons := s.Lessons
	if lessons == nil {
		lessons = map[string]Lesson{}
	}
	lessonsJSON, _ := json.Marshal(lessons)
	return map[string]interface{}{
		"id":       s.ID,
		"class_id": s.ClassID,
		"day":      s.Day,
		"lessons":  string(lessonsJSON),
	}
}

func (s Schedule) Clone() Schedule {
	c := s
	c.Lessons = make(map[string]Lesson, len(s.Lessons))
	for slot, lesson := range s.Lessons {
		c.Lessons[slot] = lesson
	}
	return c
}

// NewSchedule contains information needed to create a new Schedule.
type NewSchedule struct {
	ClassID string `json:"class_id" validate:"required,notblank"`
	Day     string `json:"day" validate:"required,notblank"`
}

func (ns *NewSchedule) Validate() error {
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.Day = core.CleanString(ns.Day)
	return core.ValidateStruct(ns)
}

// NewLesson contains information needed to book a lesson.
type NewLesson struct {
	Time      string `json:"time" validate:"required,timeslot"`
	Subject   string `json:"subject" validate:"required,notblank"`
	TeacherID int    `json:"teacher_id"`
}

func (nl *NewLesson) Validate() error {
	nl.Subject = core.CleanString(nl.Subject)
	if err := core.ValidateStruct(nl); err != nil {
		if _, ok := core.ParseTimeSlot(nl.Time); !ok && nl.Time != "" {
			return ErrInvalidTime
		}
		return err
	}
	nl.Time, _ = core.ParseTimeSlot(nl.Time)
	return nil
}

type Repository interface {
	CreateSchedule(s Schedule) (Schedule, error)
	// QueryAllSchedules returns every schedule ordered by ID.
	QueryAllSchedules() ([]Schedule, error)
	// FilterSchedules returns the schedules of `day` (case-insensitive), optionally scoped to a class.
	FilterSchedules(day string, classID ...string) ([]Schedule, error)
	GetScheduleByID(id int) (Schedule, error)
	UpdateSchedule(s Schedule) (Schedule, error)
}
