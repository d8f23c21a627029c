package auth

import "time"

// Role grants access to a class of routes.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// Operator is a console user allowed to call protected routes.
type Operator struct {
	Username     string
	PasswordHash string
	Role         Role
}

// LoginRequest captures login details.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse returns the signed tokens.
type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	Operator     OperatorView `json:"operator"`
}

// OperatorView trims sensitive fields.
type OperatorView struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	Username  string
	Role      Role
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
