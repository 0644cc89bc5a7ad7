// Package accounts registers and authenticates users.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown e-mail and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is deactivated")
)

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error
	// SaveProfile writes the self-editable fields and the password hash.
	SaveProfile(ctx context.Context, u *models.User) error
}

type DepartmentLookup interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) (*models.AuditLog, error)
}

type Service struct {
	users       UserStore
	departments DepartmentLookup
	audit       AuditRecorder
	now         func() time.Time
	cost        int
	log         *slog.Logger
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(users UserStore, departments DepartmentLookup, rec AuditRecorder, opts ...Option) *Service {
	s := &Service{
		users:       users,
		departments: departments,
		audit:       rec,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		cost:        bcrypt.DefaultCost,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user. With a nil actor the call is a self-registration:
// the admin role is refused and the new user is recorded as its own creator.
// Coordinators must name an existing department.
func (s *Service) Register(ctx context.Context, actor *primitive.ObjectID, in models.UserInput) (*models.User, error) {
	in.Normalize()
	if err := models.Validate(models.EntityUser, in); err != nil {
		return nil, err
	}
	if actor == nil && in.Role == models.RoleAdmin {
		return nil, models.Invalid(models.EntityUser, "role", models.RuleEnum, "role admin cannot be self-registered")
	}
	dept := in.DepartmentID()
	if in.Role == models.RoleCoordinator && dept == nil {
		return nil, models.Invalid(models.EntityUser, "department", models.RuleRequired, "department is required for coordinators")
	}
	if dept != nil {
		ok, err := s.departments.Exists(ctx, *dept)
		if err != nil {
			return nil, fmt.Errorf("accounts: resolve department: %w", err)
		}
		if !ok {
			return nil, models.Unresolved(models.EntityUser, "department", models.EntityDepartment)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}
	now := s.now()
	u := &models.User{
		Email:          in.Email,
		PasswordHash:   string(hash),
		Role:           in.Role,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		Department:     dept,
		IsActive:       true,
		ProfilePicture: in.ProfilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, fmt.Errorf("accounts: insert user: %w", err)
	}

	performedBy := u.ID
	if actor != nil {
		performedBy = *actor
	}
	s.record(ctx, audit.Entry{
		Action:      models.ActionCreate,
		Entity:      models.EntityUser,
		EntityID:    &u.ID,
		PerformedBy: performedBy,
		New:         u,
	})
	return u, nil
}

// Authenticate checks the password, stamps lastLogin and records a login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}

	now := s.now()
	if err := s.users.SetLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("accounts: set last login: %w", err)
	}
	u.LastLogin = &now
	u.UpdatedAt = now

	s.record(ctx, audit.Entry{
		Action:      models.ActionLogin,
		Entity:      models.EntityUser,
		EntityID:    &u.ID,
		PerformedBy: u.ID,
	})
	return u, nil
}

// Logout records a logout. Tokens are stateless, so nothing else changes.
func (s *Service) Logout(ctx context.Context, userID primitive.ObjectID) {
	s.record(ctx, audit.Entry{
		Action:      models.ActionLogout,
		Entity:      models.EntityUser,
		EntityID:    &userID,
		PerformedBy: userID,
	})
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("accounts: get user: %w", err)
	}
	return u, err
}

// Session reloads the user behind a token. A missing user is ErrNotFound and
// a deactivated one is ErrInactive.
func (s *Service) Session(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("accounts: list users: %w", err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("accounts: count users: %w", err)
	}
	return users, total, nil
}

// SetActive activates or deactivates a user and records the change.
func (s *Service) SetActive(ctx context.Context, actor, id primitive.ObjectID, active bool) (*models.User, error) {
	prev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.users.SetActive(ctx, id, active, now); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("accounts: set active: %w", err)
	}
	next := *prev
	next.IsActive = active
	next.UpdatedAt = now

	s.record(ctx, audit.Entry{
		Action:      models.ActionUpdate,
		Entity:      models.EntityUser,
		EntityID:    &next.ID,
		PerformedBy: actor,
		Previous:    prev,
		New:         &next,
	})
	return &next, nil
}

// UpdateProfile applies the caller's own profile changes.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, in models.ProfileInput) (*models.User, error) {
	in.Normalize()
	if err := models.Validate(models.EntityUser, in); err != nil {
		return nil, err
	}
	return s.saveProfile(ctx, id, in.Apply)
}

// UpdatePicture sets the caller's profile picture URL.
func (s *Service) UpdatePicture(ctx context.Context, id primitive.ObjectID, in models.PictureInput) (*models.User, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := models.Validate(models.EntityUser, in); err != nil {
		return nil, err
	}
	return s.saveProfile(ctx, id, func(u *models.User) { u.ProfilePicture = in.ImageURL })
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password is ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, in models.PasswordChange) error {
	if err := models.Validate(models.EntityUser, in); err != nil {
		return err
	}
	prev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(prev.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("accounts: hash password: %w", err)
	}
	_, err = s.save(ctx, prev, func(u *models.User) { u.PasswordHash = string(hash) })
	return err
}

func (s *Service) saveProfile(ctx context.Context, id primitive.ObjectID, apply func(*models.User)) (*models.User, error) {
	prev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, prev, apply)
}

// save stores prev with apply's changes and records the update as made by
// the user themself.
func (s *Service) save(ctx context.Context, prev *models.User, apply func(*models.User)) (*models.User, error) {
	next := *prev
	apply(&next)
	next.UpdatedAt = s.now()
	if err := s.users.SaveProfile(ctx, &next); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("accounts: save profile: %w", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionUpdate,
		Entity:      models.EntityUser,
		EntityID:    &next.ID,
		PerformedBy: next.ID,
		Previous:    prev,
		New:         &next,
	})
	return &next, nil
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if _, err := s.audit.Record(ctx, e); err != nil {
		s.log.Error("audit entry not recorded",
			"action", e.Action,
			"entity", e.Entity,
			"performed_by", e.PerformedBy.Hex(),
			"error", err)
	}
}

func normalizeEmail(email string) string {
	in := models.UserInput{Email: email}
	in.Normalize()
	return in.Email
}
