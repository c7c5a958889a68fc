package inmemdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/grade"
	"github.com/eduplatform/backend/core/notification"
	"github.com/eduplatform/backend/core/schedule"
	"github.com/eduplatform/backend/core/user"
)

func TestUserRepository_idsAreNeverReused(t *testing.T) {
	repo := NewUserRepository(Open())
	now := time.Now().UTC()

	u1, err := repo.CreateUser(user.New("One", "one@test.com", user.RoleStudent, now))
	require.NoError(t, err)
	u2, err := repo.CreateUser(user.New("Two", "two@test.com", user.RoleTeacher, now))
	require.NoError(t, err)
	require.NoError(t, repo.DeleteUsersByID(u2.ID))
	u3, err := repo.CreateUser(user.New("Three", "three@test.com", user.RoleParent, now))
	require.NoError(t, err)

	assert.Equal(t, 1, u1.ID)
	assert.Equal(t, 2, u2.ID)
	assert.Equal(t, 3, u3.ID)

	_, err = repo.GetUserByID(u2.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestOpen_sequencesArePerDB(t *testing.T) {
	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		repo := NewUserRepository(Open())
		usr, err := repo.CreateUser(user.New("One", "one@test.com", user.RoleStudent, now))
		require.NoError(t, err)
		assert.Equal(t, 1, usr.ID)
	}
}

func TestUserRepository_returnsCopies(t *testing.T) {
	repo := NewUserRepository(Open())
	usr, err := repo.CreateUser(user.New("One", "one@test.com", user.RoleStudent, time.Now()))
	require.NoError(t, err)

	usr.Student.AddGrade("Math", 5)
	usr.FullName = "Changed"

	stored, err := repo.GetUserByID(usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "One", stored.FullName)
	assert.Empty(t, stored.Student.Grades)
}

func TestUserRepository_CheckEmailUniqueness(t *testing.T) {
	repo := NewUserRepository(Open())
	usr, err := repo.CreateUser(user.New("One", "one@test.com", user.RoleStudent, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness("one@test.com"))
	assert.NoError(t, repo.CheckEmailUniqueness("one@test.com", usr))
	assert.NoError(t, repo.CheckEmailUniqueness("two@test.com"))
}

func TestUserRepository_FilterUsers(t *testing.T) {
	repo := NewUserRepository(Open())
	now := time.Now()
	create := func(name, email string, role user.Role, class string) user.User {
		usr := user.New(name, email, role, now)
		if usr.IsStudent() {
			usr.Student.GradeLevel = class
		}
		usr, err := repo.CreateUser(usr)
		require.NoError(t, err)
		return usr
	}
	ali := create("Ali Valiyev", "ali@student.com", user.RoleStudent, "9-A")
	dilnoza := create("Dilnoza Karimova", "dilnoza@student.com", user.RoleStudent, "9-A")
	bob := create("Bob", "bob@student.com", user.RoleStudent, "10-B")
	sarvar := create("Sarvar Saidov", "sarvar@teacher.com", user.RoleTeacher, "")

	ids := func(users []user.User) []int {
		res := make([]int, 0, len(users))
		for _, u := range users {
			res = append(res, u.ID)
		}
		return res
	}
	tests := []struct {
		name   string
		filter user.QueryFilter
		want   []int
	}{
		{name: "all", want: []int{ali.ID, dilnoza.ID, bob.ID, sarvar.ID}},
		{name: "teachers", filter: user.QueryFilter{Role: user.RoleTeacher}, want: []int{sarvar.ID}},
		{name: "class", filter: user.QueryFilter{ClassID: "9-A"}, want: []int{ali.ID, dilnoza.ID}},
		{name: "search email", filter: user.QueryFilter{Search: "student.com"}, want: []int{ali.ID, dilnoza.ID, bob.ID}},
		{name: "search name", filter: user.QueryFilter{Search: "saidov"}, want: []int{sarvar.ID}},
		{name: "class & role", filter: user.QueryFilter{Role: user.RoleTeacher, ClassID: "9-A"}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FilterUsers(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestUserRepository_AddNotification(t *testing.T) {
	repo := NewUserRepository(Open())
	u1, err := repo.CreateUser(user.New("One", "one@test.com", user.RoleStudent, time.Now()))
	require.NoError(t, err)
	u2, err := repo.CreateUser(user.New("Two", "two@test.com", user.RoleStudent, time.Now()))
	require.NoError(t, err)

	n1, err := repo.AddNotification(u1.ID, notification.New(0, "hi", "", time.Now()))
	require.NoError(t, err)
	n2, err := repo.AddNotification(u2.ID, notification.New(0, "hey", "important", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, n1.ID)
	assert.Equal(t, 2, n2.ID)
	assert.Equal(t, u2.ID, n2.RecipientID)

	_, err = repo.AddNotification(42, notification.New(42, "lost", "", time.Now()))
	assert.Equal(t, user.ErrNotFound, err)

	stored, err := repo.GetUserByID(u2.ID)
	require.NoError(t, err)
	require.Len(t, stored.Notifications, 1)
	assert.Equal(t, "hey", stored.Notifications[0].Message)
}

func TestAssignmentRepository(t *testing.T) {
	repo := NewAssignmentRepository(Open())

	a1, err := repo.CreateAssignment(assignment.Assignment{TeacherID: 1, ClassID: "9-A", Subject: "Math"})
	require.NoError(t, err)
	a2, err := repo.CreateAssignment(assignment.Assignment{TeacherID: 2, ClassID: "9-A", Subject: "History"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteAssignmentsByID(a2.ID))
	a3, err := repo.CreateAssignment(assignment.Assignment{TeacherID: 1, ClassID: "10-B", Subject: "Math"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{a1.ID, a2.ID, a3.ID})

	got, err := repo.FilterAssignments(assignment.QueryFilter{TeacherID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a1.ID, got[0].ID)
	assert.Equal(t, a3.ID, got[1].ID)

	a1.AddSubmission(5, "done", time.Now())
	_, err = repo.UpdateAssignment(a1)
	require.NoError(t, err)
	stored, err := repo.GetAssignmentByID(a1.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Submissions, 5)

	_, err = repo.UpdateAssignment(a2)
	assert.Equal(t, assignment.ErrNotFound, err)
	_, err = repo.GetAssignmentByID(a2.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
}

func TestGradeRepository(t *testing.T) {
	repo := NewGradeRepository(Open())
	for _, g := range []grade.Grade{
		{StudentID: 1, TeacherID: 10, Subject: "Math", Value: 5},
		{StudentID: 2, TeacherID: 10, Subject: "Math", Value: 3},
		{StudentID: 1, TeacherID: 11, Subject: "History", Value: 4},
	} {
		_, err := repo.CreateGrade(g)
		require.NoError(t, err)
	}

	got, err := repo.FilterGrades(grade.QueryFilter{StudentID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 3}, []int{got[0].ID, got[1].ID})

	removed, err := repo.DeleteGrades(grade.QueryFilter{TeacherID: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	g, err := repo.CreateGrade(grade.Grade{StudentID: 3, TeacherID: 11, Subject: "Art", Value: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, g.ID)

	all, err := repo.QueryAllGrades()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, []int{all[0].ID, all[1].ID})
}

func TestScheduleRepository(t *testing.T) {
	repo := NewScheduleRepository(Open())

	mon, err := repo.CreateSchedule(schedule.Schedule{ClassID: "9-A", Day: "Monday"})
	require.NoError(t, err)
	_, err = repo.CreateSchedule(schedule.Schedule{ClassID: "10-B", Day: "monday"})
	require.NoError(t, err)
	_, err = repo.CreateSchedule(schedule.Schedule{ClassID: "9-A", Day: "Tuesday"})
	require.NoError(t, err)

	got, err := repo.FilterSchedules("MONDAY")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.FilterSchedules("monday", "9-A")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mon.ID, got[0].ID)

	require.NoError(t, mon.AddLesson("09:00", "Math", 1))
	_, err = repo.UpdateSchedule(mon)
	require.NoError(t, err)
	stored, err := repo.GetScheduleByID(mon.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Lessons, "09:00")

	_, err = repo.GetScheduleByID(42)
	assert.Equal(t, schedule.ErrNotFound, err)
}
