package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/notification"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.ErrNotFound, "user not found")
	ErrEmailExists        = core.NewError(core.ErrDuplicate, "a user with this email already exists")
	ErrInvalidCredentials = core.NewError(core.ErrNotAuthorized, "invalid credentials")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		// QueryAllUsers returns every user ordered by ID.
		QueryAllUsers() ([]User, error)
		GetUserByID(id int) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FullName or User.Email.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(user User) (User, error)
		// AddNotification assigns the notification its ID and appends it to the user's inbox.
		AddNotification(userID int, n notification.Notification) (notification.Notification, error)
		DeleteUsersByID(ids ...int) error
	}

	Service struct {
		repo     Repository
		hashCost int
	}
)

func NewService(repo Repository, hashCost int) *Service {
	return &Service{repo: repo, hashCost: hashCost}
}

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create validates `nu` and stores the new User.
// Parents' children are taken as is; callers must make sure they reference Students.
func (svc *Service) Create(nu NewUser, now time.Time) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(nu.Email); err != nil {
		return User{}, err
	}

	usr := New(nu.FullName, nu.Email, nu.Role, now.UTC())
	switch {
	case usr.IsStudent():
		usr.Student.GradeLevel = nu.GradeLevel
	case usr.IsParent():
		for _, id := range nu.ChildrenIDs {
			if !usr.Parent.HasChild(id) {
				usr.Parent.Children = append(usr.Parent.Children, id)
			}
		}
	}
	if err := usr.SetPassword(nu.Password, svc.hashCost); err != nil {
		return User{}, errors.Wrap(err, "user.SetPassword")
	}
	return svc.repo.CreateUser(usr)
}

// Authenticate returns the user matching the credentials.
// Fails with ErrNotFound for an unknown email and ErrInvalidCredentials for a wrong password.
func (svc *Service) Authenticate(email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(filter)
}

// Update applies `uu` to the user `id`. Email uniqueness is only enforced at creation.
func (svc *Service) Update(id int, uu UpdateUser) (User, error) {
	if err := uu.Validate(); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if err := usr.ApplyUpdate(uu, svc.hashCost); err != nil {
		return User{}, errors.Wrap(err, "user.ApplyUpdate")
	}
	return svc.repo.UpdateUser(usr)
}

// Save stores an already-mutated user.
func (svc *Service) Save(usr User) (User, error) {
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) Notify(userID int, n notification.Notification) (notification.Notification, error) {
	return svc.repo.AddNotification(userID, n)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteUsersByID(ids...)
}
