package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleGuest   Role = "guest"
)

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// PermissionsFor returns the fixed permission set for a role. Permission
// strings are "<resource>:<action>" with "*" wildcards on either side.
func PermissionsFor(role Role) []string {
	switch role {
	case RoleAdmin:
		return []string{"*"}
	case RoleManager:
		return []string{"*:read", "*:create", "*:update", "*:delete"}
	case RoleUser:
		return []string{"*:read", "*:create", "*:update"}
	case RoleGuest:
		return []string{"*:read"}
	default:
		return nil
	}
}

// HasPermission reports whether the permission set grants the required
// "<resource>:<action>" permission.
func HasPermission(perms []string, required string) bool {
	res, action, ok := strings.Cut(required, ":")
	if !ok {
		return false
	}
	for _, p := range perms {
		switch p {
		case "*", required, res + ":*", "*:" + action:
			return true
		}
	}
	return false
}

// User represents an account within a tenant.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Email        string    `gorm:"type:varchar(255);not null;index" json:"email"`
	PasswordHash string    `gorm:"type:text" json:"-"`
	FirstName    string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(100)" json:"last_name"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Permissions returns the user's effective permission set.
func (u *User) Permissions() []string {
	return PermissionsFor(u.Role)
}

// JWTClaims are the custom claims embedded in bearer tokens.
type JWTClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token          string `json:"token"`
	User           User   `json:"user"`
	ExpiresIn      int64  `json:"expires_in"`
	MicrosoftToken string `json:"microsoft_token,omitempty"`
}

// MicrosoftLoginRequest represents an OAuth code exchange request.
type MicrosoftLoginRequest struct {
	AuthCode    string `json:"auth_code"`
	RedirectURI string `json:"redirect_uri"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
}

// Validate checks registration fields.
func (r *RegisterRequest) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if !strings.Contains(r.Email, "@") || !strings.Contains(r.Email, ".") {
		errs = append(errs, apierr.FieldError{Field: "email", Message: "invalid email format"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, apierr.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if r.Role != "" && !IsValidRole(r.Role) {
		errs = append(errs, apierr.FieldError{Field: "role", Message: "unknown role"})
	}
	if r.TenantID == uuid.Nil {
		errs = append(errs, apierr.FieldError{Field: "tenant_id", Message: "is required"})
	}
	return errs
}
