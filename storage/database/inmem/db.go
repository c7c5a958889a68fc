package inmemdb

import (
	"sync"

	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/grade"
	"github.com/eduplatform/backend/core/schedule"
	"github.com/eduplatform/backend/core/user"
)

type (
	// DB is an in-memory database. Every table keeps its own id sequence; ids are never reused.
	DB struct {
		user       *userTable
		assignment *assignmentTable
		grade      *gradeTable
		schedule   *scheduleTable
	}

	sequence struct {
		last int
	}

	userTable struct {
		table   map[int]*user.User
		pk      sequence
		notifPK sequence // notifications
		mutex   sync.RWMutex
	}

	assignmentTable struct {
		table map[int]*assignment.Assignment
		pk    sequence
		mutex sync.RWMutex
	}

	gradeTable struct {
		rows  []grade.Grade // insertion order
		pk    sequence
		mutex sync.RWMutex
	}

	scheduleTable struct {
		table map[int]*schedule.Schedule
		pk    sequence
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		assignment: &assignmentTable{table: make(map[int]*assignment.Assignment)},
		grade:      &gradeTable{rows: make([]grade.Grade, 0)},
		schedule:   &scheduleTable{table: make(map[int]*schedule.Schedule)},
	}
}

// next must be called with the owning table's write lock held.
func (seq *sequence) next() int {
	seq.last++
	return seq.last
}
