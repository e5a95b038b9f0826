package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/meqenet/meqenet-back/internal/apierr"
)

const (
	stateCookie     = "oauth_state"
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateCookieLife = 600
)

var (
	errGoogleDisabled = apierr.NotFound("google_login_disabled", "Google sign-in is not enabled.")
	errBadState       = apierr.Validation("invalid_state", "Sign-in state did not match.")
	errBadCode        = apierr.Validation("invalid_code", "Failed to exchange authorization code.")
)

// Google signs in existing users whose Google account email matches.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogle(clientID, secret, redirectURL string) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: secret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfo,
	}
}

type googleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

func (g *Google) email(ctx context.Context, code string) (string, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", errBadCode
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return "", apierr.Internal(err)
	}
	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return "", apierr.Internal(fmt.Errorf("fetch google profile: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apierr.Internal(fmt.Errorf("google profile: status %s", resp.Status))
	}
	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", apierr.Internal(fmt.Errorf("decode google profile: %w", err))
	}
	if profile.Email == "" || !profile.VerifiedEmail {
		return "", errInvalidCredentials
	}
	return profile.Email, nil
}

// GoogleLogin godoc
// @Summary      Sign in with Google
// @Description  Redirects to Google's consent page
// @Tags         auth
// @Success      307
// @Failure      404  {object}  apierr.Body
// @Router       /auth/google/login [get]
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		abort(c, errGoogleDisabled)
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieLife, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.oauth.AuthCodeURL(state))
}

// GoogleCallback godoc
// @Summary      Google callback
// @Description  Completes Google sign-in for an existing account
// @Tags         auth
// @Produce      json
// @Param        state  query     string  true  "OAuth state"
// @Param        code   query     string  true  "Authorization code"
// @Success      200    {object}  SessionResponse
// @Failure      400    {object}  apierr.Body
// @Failure      401    {object}  apierr.Body
// @Router       /auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		abort(c, errGoogleDisabled)
		return
	}
	expected, err := c.Cookie(stateCookie)
	if err != nil || expected == "" || expected != c.Query("state") {
		abort(c, errBadState)
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	email, err := h.google.email(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	session, err := h.gate.LoginByEmail(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse("Login successful.", session))
}
