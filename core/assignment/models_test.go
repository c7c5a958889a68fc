package assignment

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/grade"
)

func TestParseDeadline(t *testing.T) {
	want := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		s       string
		wantErr error
	}{
		{name: "date", s: "2024-09-15"},
		{name: "RFC3339", s: "2024-09-15T17:45:00Z"},
		{name: "RFC3339 with offset", s: "2024-09-15T23:30:00+05:00"},
		{name: "RFC3339Nano", s: "2024-09-15T17:45:00.123456789Z"},
		{name: "iso without zone", s: "2024-09-15T17:45:00.123456"},
		{name: "iso seconds", s: "2024-09-15T17:45:00"},
		{name: "space separated", s: "2024-09-15 17:45:00"},
		{name: "padded", s: "  2024-09-15 "},
		{name: "garbage", s: "next friday", wantErr: ErrInvalidDeadline},
		{name: "empty", s: "", wantErr: ErrInvalidDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeadline(tt.s)
			if err != tt.wantErr {
				t.Fatalf("ParseDeadline() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !got.Equal(want) {
				t.Errorf("ParseDeadline() = %v, want %v", got, want)
			}
		})
	}
}

func newAssignment(t *testing.T, deadline string) Assignment {
	asg, err := NewAssignment{
		TeacherID:  1,
		Title:      "Algebra Worksheet",
		Deadline:   deadline,
		Subject:    "Math",
		ClassID:    "9-A",
		Difficulty: Medium,
	}.Build()
	require.NoError(t, err)
	return asg
}

func TestAssignment_IsLate(t *testing.T) {
	asg := newAssignment(t, "2024-09-15")
	tests := []struct {
		at   time.Time
		want bool
	}{
		{at: time.Date(2024, 9, 14, 12, 0, 0, 0, time.UTC), want: false},
		{at: time.Date(2024, 9, 15, 23, 59, 0, 0, time.UTC), want: false},
		{at: time.Date(2024, 9, 16, 0, 1, 0, 0, time.UTC), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			if got := asg.IsLate(tt.at); got != tt.want {
				t.Errorf("IsLate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignment_lifecycle(t *testing.T) {
	asg := newAssignment(t, "2024-09-15")
	assert.Equal(t, StatusPending, asg.Status)
	assert.Equal(t, StatusPending, asg.SubmissionStatus(10))

	// no submission yet
	err := asg.SetGrade(10, 4)
	assert.Equal(t, ErrNoSubmission, err)
	assert.True(t, errors.Is(err, core.ErrStateConflict))

	sub := asg.AddSubmission(10, "done", time.Date(2024, 9, 15, 10, 0, 0, 0, time.UTC))
	assert.False(t, sub.IsLate)
	assert.Equal(t, StatusSubmitted, asg.SubmissionStatus(10))

	sub = asg.AddSubmission(11, "late", time.Date(2024, 9, 16, 10, 0, 0, 0, time.UTC))
	assert.True(t, sub.IsLate)
	assert.Equal(t, StatusLateSubmission, asg.SubmissionStatus(11))
	assert.Equal(t, StatusLateSubmission, asg.Status)

	for _, v := range []int{0, 6} {
		assert.Equal(t, grade.ErrInvalidValue, asg.SetGrade(10, v))
	}
	require.NoError(t, asg.SetGrade(10, 5))
	assert.Equal(t, StatusGraded, asg.SubmissionStatus(10))
	assert.Equal(t, StatusGraded, asg.Status)

	assert.True(t, asg.RemoveStudent(10))
	assert.False(t, asg.RemoveStudent(10))
	assert.NotContains(t, asg.Submissions, 10)
	assert.NotContains(t, asg.Grades, 10)
}

func TestAssignment_Info(t *testing.T) {
	asg := newAssignment(t, "2024-09-15T10:00:00Z")
	asg.ID = 3
	asg.AddSubmission(10, "done", time.Date(2024, 9, 14, 10, 0, 0, 0, time.UTC))
	require.NoError(t, asg.SetGrade(10, 4))

	info := asg.Info()
	assert.Equal(t, 3, info["id"])
	assert.Equal(t, "2024-09-15", info["deadline"])
	assert.Equal(t, "Medium", info["difficulty"])
	assert.Equal(t, "Graded", info["status"])
	assert.JSONEq(t, `{"10":4}`, info["grades"].(string))
	assert.JSONEq(t,
		`{"10":{"content":"done","submission_date":"2024-09-14T10:00:00Z","is_late":false}}`,
		info["submissions"].(string),
	)
}

func TestNewAssignment_Build(t *testing.T) {
	tests := []struct {
		name     string
		na       NewAssignment
		wantKind error
	}{
		{
			name: "valid",
			na:   NewAssignment{Title: "Essay", Deadline: "2024-09-15", Subject: "History", ClassID: "9-A", Difficulty: Easy},
		},
		{
			name:     "missing title",
			na:       NewAssignment{Deadline: "2024-09-15", Subject: "History", ClassID: "9-A", Difficulty: Easy},
			wantKind: core.ErrMissingField,
		},
		{
			name:     "unknown difficulty",
			na:       NewAssignment{Title: "Essay", Deadline: "2024-09-15", Subject: "History", ClassID: "9-A", Difficulty: "Insane"},
			wantKind: core.ErrInvalidInput,
		},
		{
			name:     "bad deadline",
			na:       NewAssignment{Title: "Essay", Deadline: "tomorrow", Subject: "History", ClassID: "9-A", Difficulty: Hard},
			wantKind: core.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asg, err := tt.na.Build()
			if tt.wantKind == nil {
				require.NoError(t, err)
				assert.Equal(t, StatusPending, asg.Status)
				assert.NotNil(t, asg.Submissions)
				return
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("Build() error = %v, wantErr %v", err, tt.wantKind)
			}
		})
	}
}
