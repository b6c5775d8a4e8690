package models

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up form. Role is never taken from the client;
// it is inferred from the email address before the call is made.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult is a successful login.
type AuthResult struct {
	Token string `json:"-"`
	User  User   `json:"user"`
}

// RegisterResult echoes the created account.
type RegisterResult struct {
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	Message string   `json:"message"`
}

// AuthAPIResponse is the backend body for /auth/login and /auth/register.
type AuthAPIResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
	Msg         string `json:"msg"`
}

// HealthStatus is the upstream reachability probe result.
type HealthStatus struct {
	Reachable bool   `json:"reachable"`
	CheckedAt string `json:"checked_at,omitempty"`
	Error     string `json:"error,omitempty"`
}
