package platform

import (
	"encoding/json"

	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/user"
)

// Collections
const (
	CollectionUsers       = "users"
	CollectionAssignments = "assignments"
	CollectionGrades      = "grades"
	CollectionSchedules   = "schedules"
)

// Record is a flattened row: scalar values, nested structures JSON encoded.
type Record = map[string]interface{}

// Snapshot is a read-only copy of every collection, rows ordered by ID.
type Snapshot struct {
	Users       []Record
	Assignments []Record
	Grades      []Record
	Schedules   []Record
}

// Collections returns the snapshot's collections keyed by name.
func (snap Snapshot) Collections() map[string][]Record {
	return map[string][]Record{
		CollectionUsers:       snap.Users,
		CollectionAssignments: snap.Assignments,
		CollectionGrades:      snap.Grades,
		CollectionSchedules:   snap.Schedules,
	}
}

func (svc *Service) Snapshot() (Snapshot, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var snap Snapshot
	users, err := svc.users.QueryAll()
	if err != nil {
		return snap, err
	}
	asgs, err := svc.assignments.QueryAllAssignments()
	if err != nil {
		return snap, err
	}
	grades, err := svc.grades.QueryAllGrades()
	if err != nil {
		return snap, err
	}
	scheds, err := svc.schedules.QueryAllSchedules()
	if err != nil {
		return snap, err
	}

	authored := make(map[int][]int) // {teacher id: [assignment ids]}
	snap.Assignments = make([]Record, 0, len(asgs))
	for _, a := range asgs {
		authored[a.TeacherID] = append(authored[a.TeacherID], a.ID)
		snap.Assignments = append(snap.Assignments, a.Info())
	}

	snap.Users = make([]Record, 0, len(users))
	for _, u := range users {
		profile := u.Profile()
		if u.IsTeacher() {
			profile["assignments_created"] = assignmentIDs(authored[u.ID])
		}
		snap.Users = append(snap.Users, profile)
	}

	snap.Grades = make([]Record, 0, len(grades))
	for _, g := range grades {
		snap.Grades = append(snap.Grades, g.Info())
	}

	snap.Schedules = make([]Record, 0, len(scheds))
	for _, s := range scheds {
		snap.Schedules = append(snap.Schedules, s.Info())
	}
	return snap, nil
}

// TeacherAssignments returns the assignments authored by the teacher.
func (svc *Service) TeacherAssignments(teacherID int) ([]assignment.Assignment, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.actor(teacherID, user.RoleTeacher); err != nil {
		return nil, err
	}
	return svc.assignments.FilterAssignments(assignment.QueryFilter{TeacherID: teacherID})
}

func assignmentIDs(ids []int) string {
	if ids == nil {
		ids = []int{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}
