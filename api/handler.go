package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourneyarena/arena-auth/flow"
	"github.com/tourneyarena/arena-auth/logger"
	"github.com/tourneyarena/arena-auth/session"
)

type Handler struct {
	auth     *flow.Service
	sessions *session.Manager
}

func NewHandler(auth *flow.Service, sessions *session.Manager) *Handler {
	return &Handler{auth: auth, sessions: sessions}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.HandleHealth)

	e.POST("/auth/send-otp", h.HandleSendOTP)
	e.POST("/auth/verify-otp", h.HandleVerifyOTP)
	e.POST("/auth/login", h.HandleLogin)

	e.GET("/me", h.HandleMe, h.AuthMiddleware)

	// Operational routes, not exposed publicly.
	e.GET("/admin/users", h.HandleListUsers)
	e.DELETE("/admin/users/:id", h.HandleDeleteUser)
}

func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "arena-auth",
	})
}

func (h *Handler) HandleSendOTP(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	issue, err := h.auth.RequestOTP(c.Request().Context(), body.Email)
	if err != nil {
		return h.fail(c, err)
	}

	resp := map[string]interface{}{"success": true}
	if issue.Code != "" {
		resp["otp"] = issue.Code
		resp["message"] = "Email delivery unavailable, use this code"
	} else {
		resp["message"] = "OTP sent to your email"
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) HandleVerifyOTP(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	result, err := h.auth.VerifyAndRegister(c.Request().Context(), body.Name, body.Email, body.Password, body.Code)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    result.Account.Profile(),
		"token":   result.Token,
	})
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	result, err := h.auth.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    result.Account.Profile(),
		"token":   result.Token,
	})
}

// AuthMiddleware gates protected routes behind a bearer session token and
// stores the asserted account id in the request context.
func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return h.Error(c, http.StatusUnauthorized, "Authorization header required", nil)
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			return h.Error(c, http.StatusUnauthorized, "Invalid authorization header", nil)
		}

		accountID, err := h.sessions.Validate(token)
		if err != nil {
			return h.Error(c, http.StatusUnauthorized, "Invalid or expired token", err)
		}

		c.Set("accountID", accountID)
		return next(c)
	}
}

func (h *Handler) HandleMe(c echo.Context) error {
	accountID, _ := c.Get("accountID").(string)

	profile, err := h.auth.GetProfile(c.Request().Context(), accountID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) HandleListUsers(c echo.Context) error {
	accounts, err := h.auth.ListAccounts(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, accounts)
}

func (h *Handler) HandleDeleteUser(c echo.Context) error {
	if err := h.auth.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// fail maps service errors onto the HTTP taxonomy. Unrecognized errors are
// logged and answered with a generic 500 so internals never leak.
func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, flow.ErrInvalidInput):
		return h.Error(c, http.StatusBadRequest, "Email is required", err)
	case errors.Is(err, flow.ErrMissingFields):
		return h.Error(c, http.StatusBadRequest, "Missing required fields", err)
	case errors.Is(err, flow.ErrInvalidOTP):
		return h.Error(c, http.StatusBadRequest, "Invalid or expired OTP", err)
	case errors.Is(err, flow.ErrUserExists):
		return h.Error(c, http.StatusBadRequest, "User already exists", err)
	case errors.Is(err, flow.ErrInvalidCredentials):
		return h.Error(c, http.StatusUnauthorized, "Invalid email or password", err)
	case errors.Is(err, flow.ErrUserNotFound):
		return h.Error(c, http.StatusNotFound, "User not found", err)
	default:
		logger.Log.Error("internal error", zap.Error(err))
		return h.Error(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// Helper for professional errors
func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]interface{}{
		"status": message,
		"code":   code,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(code, resp)
}
