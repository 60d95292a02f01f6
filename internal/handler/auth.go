package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/service"
	"github.com/iliyamo/olympic-ticketing/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Identity *service.IdentityService
	Secret   string // verifies an optional bearer on logout
}

func NewAuthHandler(identity *service.IdentityService, secret string) *AuthHandler {
	return &AuthHandler{Identity: identity, Secret: secret}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

func toAuthResp(s *service.Session) authResp {
	return authResp{
		User:    toUserPart(s.User),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// Register: create a client account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	sess, err := h.Identity.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(sess))
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	sess, err := h.Identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(sess))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	sess, err := h.Identity.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(sess))
}

// Logout revokes the refresh token in the body.  With no body token but a
// valid bearer, every session of the bearer's user is revoked instead.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	ctx := c.Request().Context()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.Identity.Logout(ctx, raw); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	claims, err := utils.ParseAccessToken(h.Secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Identity.LogoutAll(ctx, claims.UserID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: the caller's own account.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Identity.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
