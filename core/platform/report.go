package platform

import (
	"sort"
	"time"

	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/grade"
	"github.com/eduplatform/backend/core/user"
)

type ReportType string

// Report types
const (
	ReportStudentSuccess  ReportType = "student_success"
	ReportTeacherWorkload ReportType = "teacher_workload"
	ReportClassStatistics ReportType = "class_statistics"
)

type (
	StudentSuccess struct {
		Average float64          `json:"average_grade"`
		Grades  map[string][]int `json:"grades_by_subject"`
	}

	TeacherWorkload struct {
		Subjects      int `json:"subjects_count"`
		Classes       int `json:"classes_count"`
		Assignments   int `json:"assignments_count"`
		WorkloadHours int `json:"workload_hours"`
	}

	StudentAverage struct {
		ID      int     `json:"id"`
		Name    string  `json:"name"`
		Average float64 `json:"average_grade"`
	}

	ClassStatistics struct {
		StudentCount int              `json:"student_count"`
		Students     []StudentAverage `json:"students"`
		ClassAverage float64          `json:"class_average"`
	}

	// Report holds the section matching its Type. Sections are keyed by full name, or class label.
	Report struct {
		Type            ReportType                 `json:"type"`
		GeneratedAt     time.Time                  `json:"generated_at"`
		StudentSuccess  map[string]StudentSuccess  `json:"student_success,omitempty"`
		TeacherWorkload map[string]TeacherWorkload `json:"teacher_workload,omitempty"`
		ClassStatistics map[string]ClassStatistics `json:"class_statistics,omitempty"`
	}

	// Progress is a student's standing as seen by a teacher.
	Progress struct {
		StudentID   int              `json:"student_id"`
		Name        string           `json:"name"`
		ClassID     string           `json:"class_id"`
		Grades      map[string][]int `json:"grades"`
		Assignments map[int]string   `json:"assignments"`
		Average     float64          `json:"average_grade"`
	}
)

// GenerateReport builds a report for an admin holding the generate_reports permission.
func (svc *Service) GenerateReport(adminID int, rt ReportType) (Report, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	admin, err := svc.actor(adminID, user.RoleAdmin)
	if err != nil {
		return Report{}, err
	}
	if !admin.Admin.HasPermission(user.PermGenerateReports) {
		return Report{}, ErrMissingPermission
	}

	rep := Report{Type: rt, GeneratedAt: svc.now()}
	switch rt {
	case ReportStudentSuccess:
		rep.StudentSuccess, err = svc.studentSuccess()
	case ReportTeacherWorkload:
		rep.TeacherWorkload, err = svc.teacherWorkload()
	case ReportClassStatistics:
		rep.ClassStatistics, err = svc.classStatistics()
	default:
		return Report{}, ErrUnknownReportType
	}
	if err != nil {
		return Report{}, err
	}
	svc.log.Info("report generated", admin, map[string]interface{}{"type": string(rt)})
	return rep, nil
}

// ledgerValues returns the values of the student's ledger entries, optionally scoped to one subject.
func (svc *Service) ledgerValues(studentID int, subject string) ([]int, error) {
	entries, err := svc.grades.FilterGrades(grade.QueryFilter{StudentID: studentID, Subject: subject})
	if err != nil {
		return nil, err
	}
	values := make([]int, 0, len(entries))
	for _, g := range entries {
		values = append(values, g.Value)
	}
	return values, nil
}

func (svc *Service) studentSuccess() (map[string]StudentSuccess, error) {
	students, err := svc.users.Filter(user.QueryFilter{Role: user.RoleStudent})
	if err != nil {
		return nil, err
	}
	res := make(map[string]StudentSuccess, len(students))
	for _, s := range students {
		values, err := svc.ledgerValues(s.ID, "")
		if err != nil {
			return nil, err
		}
		res[s.FullName] = StudentSuccess{Average: grade.CalculateAverage(values), Grades: s.Student.Grades}
	}
	return res, nil
}

func (svc *Service) teacherWorkload() (map[string]TeacherWorkload, error) {
	teachers, err := svc.users.Filter(user.QueryFilter{Role: user.RoleTeacher})
	if err != nil {
		return nil, err
	}
	res := make(map[string]TeacherWorkload, len(teachers))
	for _, t := range teachers {
		asgs, err := svc.assignments.FilterAssignments(assignment.QueryFilter{TeacherID: t.ID})
		if err != nil {
			return nil, err
		}
		res[t.FullName] = TeacherWorkload{
			Subjects:      len(t.Teacher.Subjects),
			Classes:       len(t.Teacher.Classes),
			Assignments:   len(asgs),
			WorkloadHours: t.Teacher.Workload,
		}
	}
	return res, nil
}

func (svc *Service) classStatistics() (map[string]ClassStatistics, error) {
	students, err := svc.users.Filter(user.QueryFilter{Role: user.RoleStudent})
	if err != nil {
		return nil, err
	}
	res := make(map[string]ClassStatistics)
	for _, s := range students {
		values, err := svc.ledgerValues(s.ID, "")
		if err != nil {
			return nil, err
		}
		stats := res[s.Student.GradeLevel]
		stats.Students = append(stats.Students, StudentAverage{
			ID:      s.ID,
			Name:    s.FullName,
			Average: grade.CalculateAverage(values),
		})
		stats.StudentCount++
		res[s.Student.GradeLevel] = stats
	}

	for class, stats := range res {
		sort.Slice(stats.Students, func(i, j int) bool { return stats.Students[i].ID < stats.Students[j].ID })
		var sum float64
		for _, s := range stats.Students {
			sum += s.Average
		}
		stats.ClassAverage = sum / float64(stats.StudentCount)
		res[class] = stats
	}
	return res, nil
}

// StudentAverage returns the mean of the student's ledger grades, optionally for one subject. 0 when there are none.
func (svc *Service) StudentAverage(studentID int, subject string) (float64, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.student(studentID); err != nil {
		return 0, err
	}
	values, err := svc.ledgerValues(studentID, subject)
	if err != nil {
		return 0, err
	}
	return grade.CalculateAverage(values), nil
}

// StudentProgress returns the student's grade lists, cached assignment statuses and ledger average.
func (svc *Service) StudentProgress(teacherID, studentID int) (Progress, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.actor(teacherID, user.RoleTeacher); err != nil {
		return Progress{}, err
	}
	stud, err := svc.student(studentID)
	if err != nil {
		return Progress{}, err
	}
	values, err := svc.ledgerValues(studentID, "")
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		StudentID:   stud.ID,
		Name:        stud.FullName,
		ClassID:     stud.Student.GradeLevel,
		Grades:      stud.Student.Grades,
		Assignments: stud.Student.Assignments,
		Average:     grade.CalculateAverage(values),
	}, nil
}

func (svc *Service) child(parentID, childID int) (user.User, error) {
	parent, err := svc.actor(parentID, user.RoleParent)
	if err != nil {
		return user.User{}, err
	}
	if !parent.Parent.HasChild(childID) {
		return user.User{}, ErrNotChild
	}
	return svc.student(childID)
}

// ChildGrades returns the child's per-subject grade lists.
func (svc *Service) ChildGrades(parentID, childID int) (map[string][]int, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stud, err := svc.child(parentID, childID)
	if err != nil {
		return nil, err
	}
	return stud.Student.Grades, nil
}

// ChildAssignments returns the status of every assignment of the child's class.
func (svc *Service) ChildAssignments(parentID, childID int) (map[int]assignment.Status, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stud, err := svc.child(parentID, childID)
	if err != nil {
		return nil, err
	}
	asgs, err := svc.assignments.FilterAssignments(assignment.QueryFilter{ClassID: stud.Student.GradeLevel})
	if err != nil {
		return nil, err
	}
	res := make(map[int]assignment.Status, len(asgs))
	for _, a := range asgs {
		res[a.ID] = a.SubmissionStatus(childID)
	}
	return res, nil
}
