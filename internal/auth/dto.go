package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// RequestResetDTO asks for a password-reset email.
type RequestResetDTO struct {
	Email string `json:"email"`
}

// CompleteResetDTO finishes a password reset with a token from the email.
type CompleteResetDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordDTO is the self-service password change payload.
type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

func (d RequestResetDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

func (d CompleteResetDTO) Validate() error {
	if d.Token == "" {
		return ValidationError{Msg: "token is required"}
	}
	if d.NewPassword == "" {
		return ValidationError{Msg: "new_password is required"}
	}
	return nil
}

func (d ChangePasswordDTO) Validate() error {
	if d.NewPassword == "" {
		return ValidationError{Msg: "new_password is required"}
	}
	return nil
}
