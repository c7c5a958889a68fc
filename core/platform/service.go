// Package platform orchestrates the school: users, assignments, the grade ledger and schedules.
// Every exported Service method runs under one coarse lock, so multi-entity cascades never interleave.
package platform

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/grade"
	"github.com/eduplatform/backend/core/notification"
	"github.com/eduplatform/backend/core/schedule"
	"github.com/eduplatform/backend/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotStudent        = core.NewError(core.ErrNotAuthorized, "user is not a student")
	ErrNotTeacher        = core.NewError(core.ErrNotAuthorized, "user is not a teacher")
	ErrNotParent         = core.NewError(core.ErrNotAuthorized, "user is not a parent")
	ErrNotAdmin          = core.NewError(core.ErrNotAuthorized, "user is not an admin")
	ErrMissingPermission = core.NewError(core.ErrNotAuthorized, "admin lacks the required permission")
	ErrSubjectNotTaught  = core.NewError(core.ErrNotAuthorized, "teacher does not teach this subject")
	ErrNotChild          = core.NewError(core.ErrNotAuthorized, "student is not this parent's child")
	ErrTeacherBusy       = core.NewError(core.ErrDuplicate, "teacher already has a lesson at this time on this day")
	ErrUnknownReportType = core.NewError(core.ErrInvalidInput, "unknown report type")

	roleErrs = map[user.Role]error{
		user.RoleStudent: ErrNotStudent,
		user.RoleTeacher: ErrNotTeacher,
		user.RoleParent:  ErrNotParent,
		user.RoleAdmin:   ErrNotAdmin,
	}
)

type Service struct {
	mu          sync.Mutex
	conf        *core.Config
	log         core.Logger
	users       *user.Service
	assignments assignment.Repository
	grades      grade.Repository
	schedules   schedule.Repository
}

func NewService(
	conf *core.Config,
	logger core.Logger,
	usrRepo user.Repository,
	asgRepo assignment.Repository,
	grdRepo grade.Repository,
	schRepo schedule.Repository,
) *Service {
	return &Service{
		conf:        conf,
		log:         logger,
		users:       user.NewService(usrRepo, conf.PasswordHashCost),
		assignments: asgRepo,
		grades:      grdRepo,
		schedules:   schRepo,
	}
}

func (svc *Service) now() time.Time {
	return NowFunc().UTC()
}

// actor returns the user `id` if it has the given role. Unknown users are treated as unauthorized.
func (svc *Service) actor(id int, role user.Role) (user.User, error) {
	usr, err := svc.users.GetByID(id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, roleErrs[role]
		}
		return user.User{}, err
	}
	if usr.Role != role {
		return user.User{}, roleErrs[role]
	}
	return usr, nil
}

// student returns the student `id`, failing with user.ErrNotFound if it is not a Student.
func (svc *Service) student(id int) (user.User, error) {
	usr, err := svc.users.GetByID(id)
	if err != nil {
		return user.User{}, err
	}
	if !usr.IsStudent() {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (svc *Service) parentsOf(studentID int) ([]user.User, error) {
	parents, err := svc.users.Filter(user.QueryFilter{Role: user.RoleParent})
	if err != nil {
		return nil, err
	}
	res := make([]user.User, 0)
	for _, p := range parents {
		if p.Parent.HasChild(studentID) {
			res = append(res, p)
		}
	}
	return res, nil
}

// validChildren drops, with a warning, the ids that do not reference a Student.
func (svc *Service) validChildren(ids []int) []int {
	valid := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, err := svc.student(id); err != nil {
			svc.log.Warn("skipping invalid child id", map[string]interface{}{"child_id": id})
			continue
		}
		valid = append(valid, id)
	}
	return valid
}

func (svc *Service) notify(recipientID int, priority, format string, args ...interface{}) {
	n := notification.New(recipientID, fmt.Sprintf(format, args...), priority, svc.now())
	if _, err := svc.users.Notify(recipientID, n); err != nil {
		svc.log.Error("sending notification", err, map[string]interface{}{"recipient_id": recipientID})
	}
}

// Users

// EnsureDefaultAdmin registers the configured admin when there are no users yet.
// Reports whether the admin was created.
func (svc *Service) EnsureDefaultAdmin() (user.User, bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	users, err := svc.users.QueryAll()
	if err != nil {
		return user.User{}, false, err
	}
	if len(users) > 0 {
		return user.User{}, false, nil
	}
	admin, err := svc.users.Create(user.NewUser{
		FullName: svc.conf.DefaultAdmin.Name,
		Email:    svc.conf.DefaultAdmin.Email,
		Password: svc.conf.DefaultAdmin.Password,
		Role:     user.RoleAdmin,
	}, svc.now())
	if err != nil {
		return user.User{}, false, errors.Wrap(err, "creating default admin")
	}
	svc.log.Info("default admin created", admin)
	return admin, true, nil
}

// Register creates a user. A parent's children ids that do not reference a Student are skipped.
func (svc *Service) Register(nu user.NewUser) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if nu.Role == user.RoleParent && len(nu.ChildrenIDs) > 0 {
		nu.ChildrenIDs = svc.validChildren(nu.ChildrenIDs)
	}
	usr, err := svc.users.Create(nu, svc.now())
	if err != nil {
		return user.User{}, err
	}
	svc.log.Info("user registered", usr)
	return usr, nil
}

func (svc *Service) Authenticate(email, pwd string) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.users.Authenticate(email, pwd)
	if err != nil {
		svc.log.Warn("authentication failed", err, map[string]interface{}{"email": email})
		return user.User{}, err
	}
	return usr, nil
}

func (svc *Service) GetUser(id int) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.users.GetByID(id)
}

func (svc *Service) QueryUsers(filter user.QueryFilter) ([]user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.users.Filter(filter)
}

func (svc *Service) UpdateProfile(id int, uu user.UpdateUser) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(uu.Children) > 0 {
		uu.Children = svc.validChildren(uu.Children)
	}
	return svc.users.Update(id, uu)
}

// RemoveUser deletes the user and cascades:
//  - Student: submissions and grades are purged from every assignment and from the ledger,
//    and the id is removed from every parent's children.
//  - Teacher: authored assignments are deleted along with the ledger entries the teacher issued.
//    Students' status caches still mention the deleted assignments.
func (svc *Service) RemoveUser(id int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.users.GetByID(id)
	if err != nil {
		return err
	}

	switch {
	case usr.IsStudent():
		if err := svc.purgeStudent(id); err != nil {
			return errors.Wrap(err, "purging student")
		}
	case usr.IsTeacher():
		if err := svc.purgeTeacher(id); err != nil {
			return errors.Wrap(err, "purging teacher")
		}
	}
	if err := svc.users.Delete(id); err != nil {
		return err
	}
	svc.log.Info("user removed", usr)
	return nil
}

func (svc *Service) purgeStudent(id int) error {
	asgs, err := svc.assignments.QueryAllAssignments()
	if err != nil {
		return err
	}
	for _, a := range asgs {
		if a.RemoveStudent(id) {
			if _, err := svc.assignments.UpdateAssignment(a); err != nil {
				return err
			}
		}
	}
	if _, err := svc.grades.DeleteGrades(grade.QueryFilter{StudentID: id}); err != nil {
		return err
	}

	parents, err := svc.parentsOf(id)
	if err != nil {
		return err
	}
	for _, p := range parents {
		p.Parent.RemoveChild(id)
		if _, err := svc.users.Save(p); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) purgeTeacher(id int) error {
	asgs, err := svc.assignments.FilterAssignments(assignment.QueryFilter{TeacherID: id})
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(asgs))
	for _, a := range asgs {
		ids = append(ids, a.ID)
	}
	if err := svc.assignments.DeleteAssignmentsByID(ids...); err != nil {
		return err
	}
	_, err = svc.grades.DeleteGrades(grade.QueryFilter{TeacherID: id})
	return err
}

// Assignments

// CreateAssignment creates an assignment authored by `na.TeacherID`, then notifies
// the students of the target class and their parents who opted in.
func (svc *Service) CreateAssignment(na assignment.NewAssignment) (assignment.Assignment, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	teacher, err := svc.actor(na.TeacherID, user.RoleTeacher)
	if err != nil {
		return assignment.Assignment{}, err
	}
	asg, err := na.Build()
	if err != nil {
		return assignment.Assignment{}, err
	}
	if asg, err = svc.assignments.CreateAssignment(asg); err != nil {
		return assignment.Assignment{}, err
	}
	svc.log.Info("assignment created", teacher, map[string]interface{}{"assignment_id": asg.ID, "class_id": asg.ClassID})

	students, err := svc.users.Filter(user.QueryFilter{Role: user.RoleStudent, ClassID: asg.ClassID})
	if err != nil {
		return asg, err
	}
	parents, err := svc.users.Filter(user.QueryFilter{Role: user.RoleParent})
	if err != nil {
		return asg, err
	}
	deadline := asg.Deadline.Format(assignment.DateLayout)
	for _, s := range students {
		s.Student.Assignments[asg.ID] = string(assignment.StatusPending)
		if _, err := svc.users.Save(s); err != nil {
			return asg, err
		}
		svc.notify(s.ID, notification.PriorityImportant,
			"New assignment in %s: '%s'. Due date: %s", asg.Subject, asg.Title, deadline)

		for _, p := range parents {
			if p.Parent.HasChild(s.ID) && p.Parent.Wants(user.PrefNewAssignmentAlert) {
				svc.notify(p.ID, notification.PriorityNormal,
					"Your child %s has a new assignment in %s: '%s'. Due date: %s", s.FullName, asg.Subject, asg.Title, deadline)
			}
		}
	}
	return asg, nil
}

// SubmitAssignment records the student's submission.
// A submission made after the deadline date is recorded as late and reported with assignment.ErrLateSubmission.
func (svc *Service) SubmitAssignment(studentID, assignmentID int, content string) (assignment.Submission, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stud, err := svc.actor(studentID, user.RoleStudent)
	if err != nil {
		return assignment.Submission{}, err
	}
	asg, err := svc.assignments.GetAssignmentByID(assignmentID)
	if err != nil {
		return assignment.Submission{}, err
	}

	now := svc.now()
	late := asg.IsLate(now)
	if !late && utf8.RuneCountInString(content) > svc.conf.MaxSubmissionLength {
		return assignment.Submission{}, assignment.ErrContentTooLong
	}

	sub := asg.AddSubmission(studentID, content, now)
	if _, err := svc.assignments.UpdateAssignment(asg); err != nil {
		return assignment.Submission{}, err
	}
	stud.Student.Assignments[asg.ID] = string(asg.SubmissionStatus(studentID))
	if _, err := svc.users.Save(stud); err != nil {
		return assignment.Submission{}, err
	}

	if late {
		svc.log.Warn("late submission", stud, map[string]interface{}{"assignment_id": asg.ID})
		return sub, assignment.ErrLateSubmission
	}
	return sub, nil
}

// GradeAssignment grades the student's submission, appends the grade to the ledger and notifies
// the student. Grades at or below the low grade threshold also alert the parents who opted in.
func (svc *Service) GradeAssignment(teacherID, studentID, assignmentID, value int, comment string) (grade.Grade, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	teacher, err := svc.actor(teacherID, user.RoleTeacher)
	if err != nil {
		return grade.Grade{}, err
	}
	stud, err := svc.student(studentID)
	if err != nil {
		return grade.Grade{}, err
	}
	asg, err := svc.assignments.GetAssignmentByID(assignmentID)
	if err != nil {
		return grade.Grade{}, err
	}
	if !teacher.Teacher.Teaches(asg.Subject) {
		return grade.Grade{}, ErrSubjectNotTaught
	}
	if err := asg.SetGrade(studentID, value); err != nil {
		return grade.Grade{}, err
	}

	if _, err := svc.assignments.UpdateAssignment(asg); err != nil {
		return grade.Grade{}, err
	}
	stud.Student.AddGrade(asg.Subject, value)
	stud.Student.Assignments[asg.ID] = string(assignment.StatusGraded)
	if _, err := svc.users.Save(stud); err != nil {
		return grade.Grade{}, err
	}
	grd, err := svc.grades.CreateGrade(grade.Grade{
		StudentID: studentID,
		Subject:   asg.Subject,
		Value:     value,
		TeacherID: teacherID,
		Date:      svc.now(),
		Comment:   comment,
	})
	if err != nil {
		return grade.Grade{}, err
	}
	svc.log.Info("assignment graded", teacher, map[string]interface{}{
		"assignment_id": asg.ID, "student_id": studentID, "value": value,
	})

	svc.notify(studentID, notification.PriorityImportant,
		"You received a grade of %d in %s for '%s'", value, asg.Subject, asg.Title)
	if value <= svc.conf.LowGradeThreshold {
		parents, err := svc.parentsOf(studentID)
		if err != nil {
			return grd, err
		}
		for _, p := range parents {
			if p.Parent.Wants(user.PrefLowGradeAlert) {
				svc.notify(p.ID, notification.PriorityImportant,
					"Warning: your child %s received a low grade of %d in %s", stud.FullName, value, asg.Subject)
			}
		}
	}
	return grd, nil
}

func (svc *Service) GetAssignment(id int) (assignment.Assignment, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.assignments.GetAssignmentByID(id)
}

// AssignmentStatus derives the student's status from the assignment itself.
func (svc *Service) AssignmentStatus(assignmentID, studentID int) (assignment.Status, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.student(studentID); err != nil {
		return "", err
	}
	asg, err := svc.assignments.GetAssignmentByID(assignmentID)
	if err != nil {
		return "", err
	}
	return asg.SubmissionStatus(studentID), nil
}

// Schedules

func (svc *Service) CreateSchedule(ns schedule.NewSchedule) (schedule.Schedule, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := ns.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	existing, err := svc.schedules.FilterSchedules(ns.Day, ns.ClassID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if len(existing) > 0 {
		return schedule.Schedule{}, schedule.ErrExists
	}
	return svc.schedules.CreateSchedule(schedule.Schedule{
		ClassID: ns.ClassID,
		Day:     ns.Day,
		Lessons: make(map[string]schedule.Lesson),
	})
}

// AddLessonToSchedule books a lesson. The slot must be free in the schedule and
// the teacher must not teach at the same time on the same day elsewhere.
func (svc *Service) AddLessonToSchedule(scheduleID int, nl schedule.NewLesson) (schedule.Schedule, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sched, err := svc.schedules.GetScheduleByID(scheduleID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	teacher, err := svc.users.GetByID(nl.TeacherID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if !teacher.IsTeacher() {
		return schedule.Schedule{}, user.ErrNotFound
	}
	if err := nl.Validate(); err != nil {
		return schedule.Schedule{}, err
	}

	if err := sched.AddLesson(nl.Time, nl.Subject, nl.TeacherID); err != nil {
		svc.log.Warn("schedule conflict", err, map[string]interface{}{"schedule_id": sched.ID, "time": nl.Time})
		return schedule.Schedule{}, err
	}
	sameDay, err := svc.schedules.FilterSchedules(sched.Day)
	if err != nil {
		return schedule.Schedule{}, err
	}
	for _, other := range sameDay {
		if other.ID != sched.ID && other.TeacherAt(nl.TeacherID, nl.Time) {
			svc.log.Warn("schedule conflict", ErrTeacherBusy, teacher, map[string]interface{}{
				"schedule_id": sched.ID, "other_schedule_id": other.ID, "time": nl.Time,
			})
			return schedule.Schedule{}, ErrTeacherBusy
		}
	}
	return svc.schedules.UpdateSchedule(sched)
}

func (svc *Service) RemoveLesson(scheduleID int, slot string) (schedule.Schedule, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sched, err := svc.schedules.GetScheduleByID(scheduleID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if err := sched.RemoveLesson(slot); err != nil {
		return schedule.Schedule{}, err
	}
	return svc.schedules.UpdateSchedule(sched)
}

// Notifications

func (svc *Service) Notifications(userID int, filter notification.Filter) ([]notification.Notification, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return usr.Notifications.Filter(filter), nil
}

func (svc *Service) MarkNotificationRead(userID, notificationID int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.users.GetByID(userID)
	if err != nil {
		return err
	}
	if err := usr.Notifications.MarkAsRead(notificationID); err != nil {
		return err
	}
	_, err = svc.users.Save(usr)
	return err
}

func (svc *Service) DeleteNotification(userID, notificationID int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.users.GetByID(userID)
	if err != nil {
		return err
	}
	if usr.Notifications, err = usr.Notifications.Delete(notificationID); err != nil {
		return err
	}
	_, err = svc.users.Save(usr)
	return err
}
