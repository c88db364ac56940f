package auth

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/transport"
	"github.com/stocklane/inventory-management/internal/user"
)

const oauthStateCookie = "oauth_state"

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetAuthUser(userID int64) (*internal.AuthUser, error)
	Register(dto user.CreateUserDTO) (*user.User, error)
	ChangePassword(userID int64, dto ChangePasswordDTO) error
	RequestPasswordReset(email string)
	CompletePasswordReset(token, newPassword string) error
	CompleteOAuthLogin(provider string, info OAuthUserInfo, tokenBlob string) (AuthTokens, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Providers *OAuthProviders
}

func NewHandler(svc ServiceAPI, providers *OAuthProviders) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
		Providers:   providers,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Authenticate(dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto user.CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u)
}

// RequestPasswordReset always acknowledges with the same message so callers
// cannot probe which emails are registered.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto RequestResetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Service.RequestPasswordReset(dto.Email)

	h.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If the email is registered, reset instructions have been sent",
	})
}

func (h *Handler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto CompleteResetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.CompletePasswordReset(dto.Token, dto.NewPassword); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// ChangePassword handles PUT /users/me/password for the logged-in user.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.UserFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangePassword(principal.ID, dto); err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// OAuthRedirect handles GET /oauth/{provider}/login: sets the state cookie
// and sends the caller to the provider's consent page.
func (h *Handler) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.Providers.Enabled(provider) {
		h.WriteError(w, http.StatusNotFound, "unknown or unconfigured provider")
		return
	}

	state := uuid.NewString()
	authURL, err := h.Providers.AuthCodeURL(provider, state)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "unknown or unconfigured provider")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// OAuthCallback handles GET /oauth/{provider}/callback: verifies state,
// exchanges the code, fetches user info, and resolves the login.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.Providers.Enabled(provider) {
		h.WriteError(w, http.StatusNotFound, "unknown or unconfigured provider")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.WriteError(w, http.StatusUnauthorized, "invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.WriteError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.Providers.Exchange(r.Context(), provider, code)
	if err != nil {
		h.Logger.Error("oauth code exchange failed", "provider", provider, "error", err)
		h.WriteError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}

	info, err := h.Providers.FetchUserInfo(r.Context(), provider, token)
	if err != nil {
		h.Logger.Error("oauth user-info fetch failed", "provider", provider, "error", err)
		h.WriteError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}

	blob, err := json.Marshal(token)
	if err != nil {
		h.Logger.Error("oauth token marshal failed", "provider", provider, "error", err)
		h.WriteError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}

	tokens, err := h.Service.CompleteOAuthLogin(provider, info, string(blob))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware resolves the bearer token to a principal and stores it in
// the request context. The principal is loaded fresh on every request so
// role and permission changes apply immediately.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		principal, err := h.Service.GetAuthUser(userID)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := internal.ContextWithUser(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
