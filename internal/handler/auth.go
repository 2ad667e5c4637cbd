package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/config"
	"github.com/growmate/growmate/internal/middleware"
	"github.com/growmate/growmate/internal/session"
	"github.com/growmate/growmate/internal/store"
	"github.com/growmate/growmate/internal/utils"
)

// AuthHandler bundles dependencies for signup, login and logout endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users store.Store
	Chats session.ChatStore
	Log   *zap.SugaredLogger
}

func NewAuthHandler(cfg config.Config, users store.Store, chats session.ChatStore, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Chats: chats, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	UserType     string `json:"user_type"`
	FarmLocation string `json:"farm_location"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	UserType  string `json:"user_type"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Register creates an account and returns an access token immediately. A
// duplicate email is an expected outcome: the store reports it as a boolean
// and the handler answers 409 so the client can ask for a different address.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/last_name/email/password required"})
	}
	if req.UserType == "" {
		req.UserType = "farmer"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	nu := store.NewUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		UserType:  req.UserType,
	}
	if loc := strings.TrimSpace(req.FarmLocation); loc != "" {
		nu.FarmLocation = &loc
	}

	ok, err := h.Users.AddUser(ctx, nu)
	if err != nil {
		h.Log.Errorw("create user failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered, please use a different email"})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Errorw("load user failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:   userPart{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, UserType: u.UserType},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Login verifies credentials and returns a fresh access token. Unknown email
// and wrong password get the same answer so the response reveals nothing
// about which field was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.VerifyUser(ctx, req.Email, req.Password)
	if err != nil {
		h.Log.Errorw("verify user failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Errorw("load user failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, UserType: u.UserType},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout clears the session's chat history. Tokens are stateless; dropping
// the stored history is the server-side part of ending a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	email := middleware.Email(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Chats.Clear(ctx, email); err != nil {
		h.Log.Warnw("clear chat history failed", "email", email, "err", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me is a simple protected endpoint returning the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"email":   c.Get("email"),
	})
}
