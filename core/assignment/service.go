package assignment

type Repository interface {
	CreateAssignment(a Assignment) (Assignment, error)
	// QueryAllAssignments returns every assignment ordered by ID.
	QueryAllAssignments() ([]Assignment, error)
	FilterAssignments(filter QueryFilter) ([]Assignment, error)
	GetAssignmentByID(id int) (Assignment, error)
	UpdateAssignment(a Assignment) (Assignment, error)
	DeleteAssignmentsByID(ids ...int) error
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	TeacherID int
	ClassID   string
	Subject   string
}

func (qf QueryFilter) Match(a Assignment) bool {
	return (qf.TeacherID == 0 || a.TeacherID == qf.TeacherID) &&
		(qf.ClassID == "" || a.ClassID == qf.ClassID) &&
		(qf.Subject == "" || a.Subject == qf.Subject)
}
