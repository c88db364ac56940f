package auth

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stocklane/inventory-management/internal"
	userDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/user"
	"github.com/stocklane/inventory-management/internal/user"
)

type UserRepository interface {
	GetByUsername(username string) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	GetByID(id int64) (*userDatamodel.User, error)
	UpdateLastLogin(id int64, at time.Time) error
	UpdatePasswordHash(id int64, hash string) error
	ResolveOAuthLogin(provider, providerUserID, email, token, baseUsername string) (*userDatamodel.User, error)
}

// IdentityAPI is the slice of the identity service that registration needs.
type IdentityAPI interface {
	CreateUser(dto user.CreateUserDTO) (*user.User, error)
}

// ResetMailer delivers the generated reset URL; formatting and transport are
// the mailer's business.
type ResetMailer interface {
	SendPasswordReset(to, resetURL string) error
}

// Service handles the authentication state transitions: password login,
// registration, OAuth callback resolution, and password reset.
type Service struct {
	userRepo   UserRepository
	identity   IdentityAPI
	tokens     TokenGenerator
	mailer     ResetMailer
	baseURL    string
	resetTTL   time.Duration
	bcryptCost int
	logger     *slog.Logger
}

func NewService(userRepo UserRepository, identity IdentityAPI, tokens TokenGenerator, mailer ResetMailer, baseURL string, resetTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if resetTTL <= 0 {
		resetTTL = internal.DefaultResetTokenDuration
	}
	return &Service{
		userRepo:   userRepo,
		identity:   identity,
		tokens:     tokens,
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		resetTTL:   resetTTL,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Authenticate validates credentials and returns session tokens. Every
// failure path costs one bcrypt comparison and yields the same generic error:
// an unknown username, an OAuth-only account without a password hash, an
// inactive account, and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	row, err := s.userRepo.GetByUsername(dto.Username)
	if err != nil {
		compareDummy(dto.Password)
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Error("login lookup failed", "error", err)
		}
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if row.PasswordHash == nil || *row.PasswordHash == "" {
		compareDummy(dto.Password)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(*row.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !row.IsActive {
		s.logger.Info("login refused for inactive account", "user_id", row.ID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(row.ID, nowFunc().UTC()); err != nil {
		// A stale last_login must not block an otherwise valid login.
		s.logger.Error("failed to record last login", "user_id", row.ID, "error", err)
	}

	return s.issueTokens(row.ID, row.Username)
}

// RefreshTokens validates a refresh token and rotates the pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	return s.issueTokens(userID, claims.Username)
}

// ValidateAccessToken validates access token and returns claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// GetAuthUser loads the user with its role and permission associations and
// builds the request principal. It runs on every authenticated request so
// role changes apply immediately; nothing is cached between requests.
func (s *Service) GetAuthUser(userID int64) (*internal.AuthUser, error) {
	row, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("could not load user", err)
	}
	if !row.IsActive {
		return nil, internal.ErrUserInactive
	}

	domainUser := user.FromDataModel(row)
	return &internal.AuthUser{
		ID:          domainUser.ID,
		Username:    domainUser.Username,
		Email:       domainUser.Email,
		IsAdmin:     domainUser.IsAdmin(),
		Permissions: domainUser.PermissionNames(),
	}, nil
}

// Register creates an account with no roles assigned and does not log the
// new user in.
func (s *Service) Register(dto user.CreateUserDTO) (*user.User, error) {
	dto.RoleNames = nil
	return s.identity.CreateUser(dto)
}

// ChangePassword is the self-service path: it verifies the current password
// before accepting the new one, and refuses outright for accounts that have
// no password to verify.
func (s *Service) ChangePassword(userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if len(dto.NewPassword) < 8 {
		return internal.NewValidationFieldError("new_password", "new_password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}

	row, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("could not load user", err)
	}

	if row.PasswordHash == nil || *row.PasswordHash == "" {
		return internal.ErrPasswordNotSet
	}

	if dto.CurrentPassword == "" {
		return internal.NewValidationFieldError("current_password", "current_password is required", internal.ErrCodeValidationFailed)
	}

	if err := VerifyPassword(*row.PasswordHash, dto.CurrentPassword); err != nil {
		return internal.ErrInvalidCredentials
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("could not change password", err)
	}

	if err := s.userRepo.UpdatePasswordHash(userID, hash); err != nil {
		return internal.NewInternalError("could not change password", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// IssueResetToken signs a reset token for the user, valid for the configured
// window. Returns a ConfigurationError when no signing secret is set.
func (s *Service) IssueResetToken(userID int64) (string, error) {
	token, err := s.tokens.GenerateResetToken(userID, s.resetTTL)
	if err != nil {
		s.logger.Error("reset token generation failed", "user_id", userID, "error", err)
		return "", err
	}
	return token, nil
}

// VerifyResetToken returns the user a valid token belongs to, or nil when
// the signature does not match, the token is malformed, the issue time is
// older than maxAge, or the embedded user id no longer resolves.
func (s *Service) VerifyResetToken(token string, maxAge time.Duration) (*user.User, error) {
	userID, issuedAt, err := s.tokens.ParseResetToken(token)
	if err != nil {
		return nil, err
	}

	// maxAge <= 0 means immediate expiry: no token is ever fresh enough.
	if maxAge <= 0 || issuedAt.IsZero() || nowFunc().Sub(issuedAt) > maxAge {
		return nil, internal.ErrTokenExpired
	}

	row, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("could not load user", err)
	}

	return user.FromDataModel(row), nil
}

// RequestPasswordReset behaves identically whether or not the email matches
// an account: the caller always gets the same acknowledgement, and failures
// are only logged.
func (s *Service) RequestPasswordReset(email string) {
	row, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Error("reset request lookup failed", "error", err)
		}
		return
	}

	token, err := s.IssueResetToken(row.ID)
	if err != nil {
		return
	}

	resetURL := s.baseURL + "/auth/reset-password?token=" + token
	if err := s.mailer.SendPasswordReset(row.Email, resetURL); err != nil {
		s.logger.Error("failed to send password reset email", "user_id", row.ID, "error", err)
	}
}

// CompletePasswordReset verifies the token and sets the new password.
func (s *Service) CompletePasswordReset(token, newPassword string) error {
	if len(newPassword) < 8 {
		return internal.NewValidationFieldError("new_password", "new_password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}

	u, err := s.VerifyResetToken(token, s.resetTTL)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("could not reset password", err)
	}

	if err := s.userRepo.UpdatePasswordHash(u.ID, hash); err != nil {
		return internal.NewInternalError("could not reset password", err)
	}

	s.logger.Info("password reset completed", "user_id", u.ID)
	return nil
}

// CompleteOAuthLogin resolves a provider identity to a local account and
// logs it in. The three resolution branches (existing link, email match,
// brand-new user) all run inside one repository transaction; when it fails
// the caller stays anonymous.
func (s *Service) CompleteOAuthLogin(provider string, info OAuthUserInfo, tokenBlob string) (AuthTokens, error) {
	if info.ID == "" || info.Email == "" {
		return AuthTokens{}, internal.NewUnauthorizedError("provider returned insufficient account information", internal.ErrCodeOAuthFailed)
	}

	baseUsername := info.Email
	if at := strings.Index(info.Email, "@"); at > 0 {
		baseUsername = info.Email[:at]
	}

	row, err := s.userRepo.ResolveOAuthLogin(provider, info.ID, info.Email, tokenBlob, baseUsername)
	if err != nil {
		s.logger.Error("oauth login resolution failed", "provider", provider, "error", err)
		return AuthTokens{}, internal.NewUnauthorizedError("sign-in failed", internal.ErrCodeOAuthFailed)
	}

	if err := s.userRepo.UpdateLastLogin(row.ID, nowFunc().UTC()); err != nil {
		s.logger.Error("failed to record last login", "user_id", row.ID, "error", err)
	}

	s.logger.Info("oauth login", "provider", provider, "user_id", row.ID)
	return s.issueTokens(row.ID, row.Username)
}

func (s *Service) issueTokens(userID int64, username string) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("could not issue tokens", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("could not issue tokens", err)
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
