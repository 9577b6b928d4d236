package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/auth"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
)

// AuthHandler serves login, registration, the Microsoft OAuth exchange and
// CSRF token issuance.
type AuthHandler struct {
	authService *auth.Service
	microsoft   *auth.MicrosoftClient
	users       *repository.UserRepository
	csrf        *middleware.CSRF
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, microsoft *auth.MicrosoftClient, users *repository.UserRepository, csrf *middleware.CSRF) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		microsoft:   microsoft,
		users:       users,
		csrf:        csrf,
	}
}

// Login exchanges credentials for a bearer token. Unknown emails, wrong
// passwords and inactive accounts all fail the same way.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, r, apierr.CodeAuthFailed, "invalid credentials", nil)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil || !user.IsActive || !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		apierr.Write(w, r, apierr.CodeAuthFailed, "invalid credentials", nil)
		return
	}

	h.issueSession(w, r, user, "")
}

// MicrosoftLogin exchanges an OAuth authorization code for a bearer token.
func (h *AuthHandler) MicrosoftLogin(w http.ResponseWriter, r *http.Request) {
	var req models.MicrosoftLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AuthCode == "" {
		apierr.Write(w, r, apierr.CodeAuthFailed, "invalid authorization code", nil)
		return
	}

	msToken, email, err := h.microsoft.Exchange(r.Context(), req.AuthCode, req.RedirectURI)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Warn().Err(err).Msg("microsoft exchange failed")
		}
		apierr.Write(w, r, apierr.CodeAuthFailed, "invalid authorization code", nil)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil || !user.IsActive {
		apierr.Write(w, r, apierr.CodeAuthFailed, "no account for this identity", nil)
		return
	}

	h.issueSession(w, r, user, msToken)
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, msToken string) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign token")
		apierr.Internal(w, r)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.Warn().Err(err).Msg("failed to stamp last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:          token,
		User:           *user,
		ExpiresIn:      int64(h.authService.TokenExpiry().Seconds()),
		MicrosoftToken: msToken,
	})
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}

	if _, err := h.users.FindByEmail(r.Context(), req.Email); err == nil {
		apierr.Write(w, r, apierr.CodeDuplicate, "email already registered", nil)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		apierr.Internal(w, r)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		TenantID:     req.TenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		log.Error().Err(err).Msg("failed to create user")
		apierr.Internal(w, r)
		return
	}

	writeData(w, http.StatusCreated, user)
}

// CSRFToken issues the session's CSRF token. Only the most recently issued
// token validates.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		apierr.Write(w, r, apierr.CodeInvalidToken, "missing authentication", nil)
		return
	}

	token, err := h.authService.GenerateCSRFToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate csrf token")
		apierr.Internal(w, r)
		return
	}

	if err := h.csrf.Issue(r.Context(), claims.ID, token); err != nil {
		log.Error().Err(err).Msg("failed to store csrf token")
		apierr.Internal(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}
