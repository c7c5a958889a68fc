package user

import (
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/notification"
)

type Role string

// Roles
const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleParent  Role = "Parent"
	RoleAdmin   Role = "Admin"
)

// Admin permissions
const (
	PermManageUsers     = "manage_users"
	PermGenerateReports = "generate_reports"
	PermSystemSettings  = "system_settings"
)

// Parent notification preferences
const (
	PrefNewAssignmentAlert = "new_assignment_alert"
	PrefLowGradeAlert      = "low_grade_alert"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

func DefaultPermissions() []string {
	return []string{PermManageUsers, PermGenerateReports, PermSystemSettings}
}

func DefaultNotificationPreferences() map[string]bool {
	return map[string]bool{PrefNewAssignmentAlert: true, PrefLowGradeAlert: true}
}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type StudentProfile struct {
	GradeLevel  string           `json:"grade_level"` // class label, eg. "9-A"
	Grades      map[string][]int `json:"grades"`      // {subject: [values]}
	Assignments map[int]string   `json:"assignments"` // {assignment id: status}; a cache, may go stale
}

// AddGrade appends `value` to the subject's grades unless the subject already holds that same value.
func (p *StudentProfile) AddGrade(subject string, value int) {
	if p.Grades == nil {
		p.Grades = make(map[string][]int)
	}
	for _, v := range p.Grades[subject] {
		if v == value {
			return
		}
	}
	p.Grades[subject] = append(p.Grades[subject], value)
}

type TeacherProfile struct {
	Subjects []string `json:"subjects"`
	Classes  []string `json:"classes"`
	Workload int      `json:"workload"` // hours
}

func (p TeacherProfile) Teaches(subject string) bool {
	return core.ContainsString(p.Subjects, subject)
}

type ParentProfile struct {
	Children                []int           `json:"children"` // Student ids
	NotificationPreferences map[string]bool `json:"notification_preferences"`
}

func (p ParentProfile) HasChild(id int) bool {
	for _, c := range p.Children {
		if c == id {
			return true
		}
	}
	return false
}

// Wants reports whether the parent opted in to `pref`. Unset preferences are enabled.
func (p ParentProfile) Wants(pref string) bool {
	enabled, ok := p.NotificationPreferences[pref]
	return !ok || enabled
}

func (p *ParentProfile) RemoveChild(id int) bool {
	for i, c := range p.Children {
		if c == id {
			p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
			return true
		}
	}
	return false
}

type AdminProfile struct {
	Permissions []string `json:"permissions"`
}

func (p AdminProfile) HasPermission(perm string) bool {
	return core.ContainsString(p.Permissions, perm)
}

// User is any platform actor. Role tags which one of the role payloads is set.
type User struct {
	ID            int                `json:"id"`
	FullName      string             `json:"full_name"`
	Email         string             `json:"email"`
	PasswordHash  []byte             `json:"-"`
	CreatedAt     time.Time          `json:"created_at"` // UTC
	Phone         string             `json:"phone"`
	Address       string             `json:"address"`
	Role          Role               `json:"role"`
	Notifications notification.Inbox `json:"notifications"`

	Student *StudentProfile `json:"student,omitempty"`
	Teacher *TeacherProfile `json:"teacher,omitempty"`
	Parent  *ParentProfile  `json:"parent,omitempty"`
	Admin   *AdminProfile   `json:"admin,omitempty"`
}

// New returns a User of the given role with its default role payload.
func New(fullName, email string, role Role, createdAt time.Time) User {
	usr := User{
		FullName:  fullName,
		Email:     email,
		Role:      role,
		CreatedAt: createdAt,
	}
	switch role {
	case RoleStudent:
		usr.Student = &StudentProfile{
			Grades:      make(map[string][]int),
			Assignments: make(map[int]string),
		}
	case RoleTeacher:
		usr.Teacher = &TeacherProfile{Subjects: []string{}, Classes: []string{}}
	case RoleParent:
		usr.Parent = &ParentProfile{Children: []int{}, NotificationPreferences: DefaultNotificationPreferences()}
	case RoleAdmin:
		usr.Admin = &AdminProfile{Permissions: DefaultPermissions()}
	}
	return usr
}

// SetPassword hashes `pwd` with bcrypt, using the optional cost (bcrypt.DefaultCost otherwise).
func (u *User) SetPassword(pwd string, cost ...int) error {
	c := bcrypt.DefaultCost
	if len(cost) > 0 && cost[0] >= bcrypt.MinCost {
		c = cost[0]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), c)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent && u.Student != nil }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher && u.Teacher != nil }
func (u *User) IsParent() bool  { return u.Role == RoleParent && u.Parent != nil }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin && u.Admin != nil }

// Profile returns a flattened, export-ready snapshot of the user.
// Nested structures are JSON encoded.
func (u *User) Profile() map[string]interface{} {
	notifs := u.Notifications
	if notifs == nil {
		notifs = notification.Inbox{}
	}
	profile := map[string]interface{}{
		"id":            u.ID,
		"full_name":     u.FullName,
		"email":         u.Email,
		"role":          string(u.Role),
		"created_at":    u.CreatedAt.Format(time.RFC3339),
		"phone":         u.Phone,
		"address":       u.Address,
		"notifications": mustJSON(notifs),
	}

	switch {
	case u.IsStudent():
		statuses := make(map[string]string, len(u.Student.Assignments))
		for id, status := range u.Student.Assignments {
			statuses[strconv.Itoa(id)] = status
		}
		profile["grade_level"] = u.Student.GradeLevel
		profile["current_assignments_status"] = mustJSON(statuses)
		profile["all_grades"] = mustJSON(u.Student.Grades)
	case u.IsTeacher():
		profile["subjects_taught"] = mustJSON(u.Teacher.Subjects)
		profile["classes_taught"] = mustJSON(u.Teacher.Classes)
		profile["workload"] = u.Teacher.Workload
	case u.IsParent():
		profile["children_ids"] = mustJSON(u.Parent.Children)
		profile["notification_preferences"] = mustJSON(u.Parent.NotificationPreferences)
	case u.IsAdmin():
		profile["permissions"] = mustJSON(u.Admin.Permissions)
	}
	return profile
}

// ApplyUpdate applies the set fields of `uu`. Fields that do not apply to the user's role are ignored.
func (u *User) ApplyUpdate(uu UpdateUser, cost ...int) error {
	if uu.FullName != nil {
		u.FullName = core.CleanString(*uu.FullName)
	}
	if uu.Email != nil {
		u.Email = core.CleanString(*uu.Email, true /* lower */)
	}
	if uu.Password != nil {
		if err := u.SetPassword(*uu.Password, cost...); err != nil {
			return err
		}
	}
	if uu.Phone != nil {
		u.Phone = core.CleanString(*uu.Phone)
	}
	if uu.Address != nil {
		u.Address = core.CleanString(*uu.Address)
	}

	switch {
	case u.IsStudent():
		if uu.GradeLevel != nil {
			u.Student.GradeLevel = core.CleanString(*uu.GradeLevel)
		}
	case u.IsTeacher():
		u.Teacher.Subjects = core.MergeStrings(u.Teacher.Subjects, uu.Subjects...)
		u.Teacher.Classes = core.MergeStrings(u.Teacher.Classes, uu.Classes...)
		if uu.Workload != nil {
			u.Teacher.Workload = *uu.Workload
		}
	case u.IsParent():
		for _, id := range uu.Children {
			if !u.Parent.HasChild(id) {
				u.Parent.Children = append(u.Parent.Children, id)
			}
		}
		if u.Parent.NotificationPreferences == nil {
			u.Parent.NotificationPreferences = DefaultNotificationPreferences()
		}
		for pref, enabled := range uu.NotificationPreferences {
			u.Parent.NotificationPreferences[pref] = enabled
		}
	case u.IsAdmin():
		u.Admin.Permissions = core.MergeStrings(u.Admin.Permissions, uu.Permissions...)
	}
	return nil
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	c := u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Notifications = u.Notifications.Clone()
	if u.Student != nil {
		s := *u.Student
		s.Grades = make(map[string][]int, len(u.Student.Grades))
		for subj, values := range u.Student.Grades {
			s.Grades[subj] = append([]int(nil), values...)
		}
		s.Assignments = make(map[int]string, len(u.Student.Assignments))
		for id, status := range u.Student.Assignments {
			s.Assignments[id] = status
		}
		c.Student = &s
	}
	if u.Teacher != nil {
		t := *u.Teacher
		t.Subjects = append([]string{}, u.Teacher.Subjects...)
		t.Classes = append([]string{}, u.Teacher.Classes...)
		c.Teacher = &t
	}
	if u.Parent != nil {
		p := *u.Parent
		p.Children = append([]int{}, u.Parent.Children...)
		p.NotificationPreferences = make(map[string]bool, len(u.Parent.NotificationPreferences))
		for pref, enabled := range u.Parent.NotificationPreferences {
			p.NotificationPreferences[pref] = enabled
		}
		c.Parent = &p
	}
	if u.Admin != nil {
		a := *u.Admin
		a.Permissions = append([]string{}, u.Admin.Permissions...)
		c.Admin = &a
	}
	return c
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	FullName    string `json:"full_name" validate:"required,notblank"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Role        Role   `json:"role" validate:"required,userrole"`
	GradeLevel  string `json:"grade_level"`  // required for students
	ChildrenIDs []int  `json:"children_ids"` // parents only
}

func (nu *NewUser) Validate() error {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.GradeLevel = core.CleanString(nu.GradeLevel)
	return core.ValidateStruct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Nil fields are left untouched; list fields are merged into the existing ones.
type UpdateUser struct {
	FullName *string `json:"full_name" validate:"omitempty,notblank"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,notblank"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`

	GradeLevel              *string         `json:"grade_level" validate:"omitempty,notblank"`
	Subjects                []string        `json:"subjects"`
	Classes                 []string        `json:"classes"`
	Workload                *int            `json:"workload" validate:"omitempty,min=0"`
	Children                []int           `json:"children"`
	NotificationPreferences map[string]bool `json:"notification_preferences"`
	Permissions             []string        `json:"permissions"`
}

func (uu *UpdateUser) Validate() error { return core.ValidateStruct(uu) }

type QueryFilter struct {
	Role    Role
	ClassID string // students' grade level
	Search  string // case-insensitive match on full name or email
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.ClassID = core.CleanString(qf.ClassID)
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
