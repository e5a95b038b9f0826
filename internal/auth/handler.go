package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
)

var errInvalidBody = apierr.Validation("invalid_body", "Request body must be valid JSON.")

type Handler struct {
	gate   *Gate
	google *Google
	log    *logger.Logger
}

// NewHandler serves the /api/auth routes. google may be nil when Google
// sign-in is not configured.
func NewHandler(gate *Gate, google *Google, log *logger.Logger) *Handler {
	return &Handler{gate: gate, google: google, log: log.With("service", "auth_http")}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if apierr.KindOf(err) == apierr.KindInternal {
		h.log.Error("Auth request failed", "path", c.FullPath(), "err", err)
	}
	abort(c, err)
}

type RegisterRequest struct {
	Email     string `json:"email" example:"teacher@school1.et"`
	Password  string `json:"password" example:"s3cret-pass"`
	FirstName string `json:"firstName" example:"Tigist"`
	LastName  string `json:"lastName" example:"Bekele"`
	Role      string `json:"role" example:"Teacher"`
	SchoolID  uint   `json:"schoolId" example:"1"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"teacher@school1.et"`
	Password string `json:"password" example:"s3cret-pass"`
}

type RegisteredUser struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type SessionUser struct {
	ID                 uint            `json:"id"`
	Email              string          `json:"email"`
	Role               models.Role     `json:"role"`
	SchoolID           uint            `json:"school_id"`
	LanguagePreference models.Language `json:"languagePreference"`
}

type RegisterResponse struct {
	Message string         `json:"message"`
	User    RegisteredUser `json:"user"`
	Token   string         `json:"token"`
}

type SessionResponse struct {
	Message string      `json:"message"`
	User    SessionUser `json:"user"`
	Token   string      `json:"token"`
}

func NewSessionResponse(message string, s *Session) SessionResponse {
	return SessionResponse{
		Message: message,
		User: SessionUser{
			ID:                 s.User.ID,
			Email:              s.User.Email,
			Role:               s.User.Role,
			SchoolID:           s.User.SchoolID,
			LanguagePreference: s.User.LanguagePreference,
		},
		Token: s.Token,
	}
}

// Register godoc
// @Summary      Register a user
// @Description  Creates a Teacher (default) or Admin account and returns a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Registration data"
// @Success      201   {object}  RegisterResponse
// @Failure      400   {object}  apierr.Body
// @Failure      409   {object}  apierr.Body
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errInvalidBody)
		return
	}
	session, err := h.gate.Register(c.Request.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		SchoolID:  req.SchoolID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "Registration successful. User created.",
		User:    RegisteredUser{ID: session.User.ID, Email: session.User.Email, Role: session.User.Role},
		Token:   session.Token,
	})
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  SessionResponse
// @Failure      400   {object}  apierr.Body
// @Failure      401   {object}  apierr.Body
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errInvalidBody)
		return
	}
	session, err := h.gate.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse("Login successful.", session))
}

// Refresh godoc
// @Summary      Refresh token
// @Description  Issues a new token with current user data and revokes the presented one
// @Tags         auth
// @Produce      json
// @Success      200  {object}  SessionResponse
// @Failure      401  {object}  apierr.Body
// @Failure      403  {object}  apierr.Body
// @Security     BearerAuth
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		abort(c, errMissingToken)
		return
	}
	session, err := h.gate.Refresh(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse("Token refreshed.", session))
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  apierr.Body
// @Failure      403  {object}  apierr.Body
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		abort(c, errMissingToken)
		return
	}
	if err := h.gate.Logout(c.Request.Context(), claims); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}
