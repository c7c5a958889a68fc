package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		slot   string
		want   string
		wantOk bool
	}{
		{slot: "09:00", want: "09:00", wantOk: true},
		{slot: " 9:05 ", want: "09:05", wantOk: true},
		{slot: "23:59", want: "23:59", wantOk: true},
		{slot: "24:00"},
		{slot: "12:60"},
		{slot: "9am"},
		{slot: ""},
	}
	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			got, ok := ParseTimeSlot(tt.slot)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("ParseTimeSlot() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type lesson struct {
		Name string `json:"name" validate:"required,notblank"`
		Time string `json:"time" validate:"omitempty,timeslot"`
	}

	tests := []struct {
		name       string
		s          lesson
		wantKind   error
		wantFields map[string]string
	}{
		{name: "valid", s: lesson{Name: "Math", Time: "10:00"}},
		{
			name: "missing", s: lesson{}, wantKind: ErrMissingField,
			wantFields: map[string]string{"name": "name is required"},
		},
		{
			name: "blank", s: lesson{Name: "   "}, wantKind: ErrInvalidInput,
			wantFields: map[string]string{"name": "name cannot be blank"},
		},
		{
			name: "bad time", s: lesson{Name: "Math", Time: "25:00"}, wantKind: ErrInvalidInput,
			wantFields: map[string]string{"time": "time must be a 24-hour time in the HH:MM format"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.s)
			if tt.wantKind == nil {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantKind)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidateStruct() error = %T, want *ValidationError", err)
			}
			for fld, msg := range tt.wantFields {
				if got := vErr.FieldErrors()[fld]; got != msg {
					t.Errorf("FieldErrors()[%q] = %q, want %q", fld, got, msg)
				}
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "domain error", err: NewError(ErrDuplicate, "taken"), want: ErrDuplicate},
		{name: "wrapped", err: errors.Wrap(NewError(ErrNotFound, "gone"), "context"), want: ErrNotFound},
		{name: "missing field", err: ErrMissingField, want: ErrInvalidInput},
		{name: "other", err: errors.New("boom"), want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeStrings(t *testing.T) {
	got := MergeStrings([]string{"Math", "Physics"}, "Physics", "History", "Math", "Art")
	want := []string{"Math", "Physics", "History", "Art"}
	if len(got) != len(want) {
		t.Fatalf("MergeStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MergeStrings() = %v, want %v", got, want)
		}
	}
}
