package user

import (
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/core/common/validation"
	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetAll() ([]*userDatamodel.User, error)
	GetByID(id int64) (*userDatamodel.User, error)
	UsernameExists(username string, excludeID int64) (bool, error)
	EmailExists(email string, excludeID int64) (bool, error)
	RolesByNames(names []string) ([]userDatamodel.Role, error)
	Create(u *userDatamodel.User) error
	Update(u *userDatamodel.User, replaceRoles bool) error
	Delete(id int64) error
}

// Service is the identity service: validated create/update/delete of users,
// including role assignment, independent of the transport layer.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetAllUsers() ([]*User, error) {
	rows, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, apperrors.NewInternalError("could not list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) GetUserByID(id int64) (*User, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not load user", err)
	}
	return FromDataModel(row), nil
}

// CreateUser validates and persists a new user. Format checks run first with
// no database access; the uniqueness queries only fire once the payload is
// well-formed.
func (s *Service) CreateUser(dto CreateUserDTO) (*User, error) {
	if err := validateUserFormat(dto.Username, dto.Email, &dto.Password, true); err != nil {
		return nil, err
	}

	if err := s.checkUniqueness(dto.Username, dto.Email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, apperrors.NewInternalError("could not create user", err)
	}
	hashStr := string(hash)

	roles, err := s.resolveRoles(dto.RoleNames)
	if err != nil {
		return nil, err
	}

	row := &userDatamodel.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: &hashStr,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		IsActive:     true,
		Roles:        roles,
	}

	if err := s.repo.Create(row); err != nil {
		// A concurrent insert can still lose the race on the unique
		// constraints; surface it under the reserved "database" key.
		s.logger.Error("failed to persist user", "username", dto.Username, "error", err)
		return nil, apperrors.NewInternalError("could not create user", err).
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: "database", Message: "could not create user", Code: string(apperrors.ErrCodeDatabaseError)},
			}})
	}

	s.logger.Info("user created", "user_id", row.ID, "username", row.Username)
	return FromDataModel(row), nil
}

// UpdateUser applies a partial update. Only fields present in the payload are
// touched; a present role list fully replaces the existing role set.
func (s *Service) UpdateUser(id int64, dto UpdateUserDTO) (*User, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("failed to load user for update", "user_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not load user", err)
	}

	username := row.Username
	if dto.Username != nil {
		username = *dto.Username
	}
	email := row.Email
	if dto.Email != nil {
		email = *dto.Email
	}

	if err := validateUserFormat(username, email, dto.Password, false); err != nil {
		return nil, err
	}

	if err := s.checkUniqueness(username, email, id); err != nil {
		return nil, err
	}

	row.Username = username
	row.Email = email
	if dto.FirstName != nil {
		row.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		row.LastName = *dto.LastName
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}
	if dto.Password != nil && *dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to hash password", "user_id", id, "error", err)
			return nil, apperrors.NewInternalError("could not update user", err)
		}
		hashStr := string(hash)
		row.PasswordHash = &hashStr
	}

	replaceRoles := dto.RoleNames != nil
	if replaceRoles {
		roles, err := s.resolveRoles(*dto.RoleNames)
		if err != nil {
			return nil, err
		}
		row.Roles = roles
	}

	if err := s.repo.Update(row, replaceRoles); err != nil {
		s.logger.Error("failed to persist user update", "user_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not update user", err).
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: "database", Message: "could not update user", Code: string(apperrors.ErrCodeDatabaseError)},
			}})
	}

	s.logger.Info("user updated", "user_id", id)
	return FromDataModel(row), nil
}

// DeleteUser removes the user together with its OAuth account links in one
// transaction. A missing id is a NotFound error, never a fault.
func (s *Service) DeleteUser(id int64) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return apperrors.NewInternalError("could not delete user", err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// validateUserFormat runs the presence and length checks. It never touches
// the store, so malformed input short-circuits before any uniqueness query.
func validateUserFormat(username, email string, password *string, isNew bool) *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("username", username).Required().MaxLength(64)
	v.Field("email", email).Required().Email().MaxLength(120)
	if isNew {
		pw := ""
		if password != nil {
			pw = *password
		}
		v.Field("password", pw).Required().MinLength(8)
	} else if password != nil && *password != "" {
		v.Field("password", *password).MinLength(8)
	}
	return v.Validate()
}

// checkUniqueness queries username and email case-insensitively, excluding
// the row under update when excludeID is non-zero.
func (s *Service) checkUniqueness(username, email string, excludeID int64) error {
	var conflicts []apperrors.ValidationError

	taken, err := s.repo.UsernameExists(username, excludeID)
	if err != nil {
		s.logger.Error("username uniqueness check failed", "error", err)
		return apperrors.NewInternalError("could not validate user", err)
	}
	if taken {
		conflicts = append(conflicts, apperrors.ValidationError{
			Field: "username", Message: "Username already taken", Code: string(apperrors.ErrCodeUsernameTaken),
		})
	}

	taken, err = s.repo.EmailExists(email, excludeID)
	if err != nil {
		s.logger.Error("email uniqueness check failed", "error", err)
		return apperrors.NewInternalError("could not validate user", err)
	}
	if taken {
		conflicts = append(conflicts, apperrors.ValidationError{
			Field: "email", Message: "Email already registered", Code: string(apperrors.ErrCodeEmailTaken),
		})
	}

	if len(conflicts) > 0 {
		return apperrors.NewConflictError("User already exists", apperrors.ErrCodeValidationFailed).
			WithDetails(apperrors.ValidationErrors{Errors: conflicts})
	}
	return nil
}

// resolveRoles maps role names to stored roles. Names with no matching row
// are dropped rather than rejected, matching the admin form behavior.
func (s *Service) resolveRoles(names []string) ([]userDatamodel.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}

	roles, err := s.repo.RolesByNames(names)
	if err != nil {
		s.logger.Error("failed to resolve roles", "error", err)
		return nil, apperrors.NewInternalError("could not resolve roles", err)
	}

	if len(roles) != len(names) {
		found := make(map[string]struct{}, len(roles))
		for _, r := range roles {
			found[r.Name] = struct{}{}
		}
		for _, name := range names {
			if _, ok := found[name]; !ok {
				s.logger.Warn("ignoring unknown role", "role", name)
			}
		}
	}
	return roles, nil
}
