package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

var (
	errInvalidCredentials = apierr.Unauthenticated("invalid_credentials", "Invalid email or password.")
	errInvalidToken       = apierr.Forbidden("invalid_token", "Invalid or expired token.")
)

// Gate authenticates users and issues, verifies and revokes their tokens.
type Gate struct {
	users   store.IdentityStore
	hasher  Hasher
	tokens  *TokenManager
	revoker Revoker
	log     *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewGate(users store.IdentityStore, hasher Hasher, tokens *TokenManager, revoker Revoker, log *logger.Logger) *Gate {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Gate{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		log:     log.With("service", "auth"),
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	SchoolID  uint
}

// Session is a user together with a freshly issued token.
type Session struct {
	User   *models.User
	Token  string
	Claims *Claims
}

func (g *Gate) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.SchoolID == 0 {
		return nil, apierr.Validation("missing_fields", "Missing required fields for registration.")
	}
	role := models.RoleTeacher
	if r := strings.TrimSpace(in.Role); r != "" {
		role = models.Role(r)
		if !role.Valid() {
			return nil, apierr.Validation("invalid_role", "Role must be Teacher or Admin.")
		}
	}

	if _, err := g.users.FindUserByEmail(ctx, in.Email); err == nil {
		return nil, store.ErrEmailExists
	} else if !apierr.IsNotFound(err) {
		return nil, err
	}
	if _, err := g.users.FindSchool(ctx, in.SchoolID); err != nil {
		if apierr.IsNotFound(err) {
			return nil, store.ErrUnknownSchool
		}
		return nil, err
	}

	hash, err := g.hasher.Hash(in.Password)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	user := &models.User{
		SchoolID:           in.SchoolID,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Email:              in.Email,
		Role:               role,
		PasswordHash:       hash,
		LanguagePreference: models.DefaultLanguage,
	}
	if err := g.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	g.log.Info("User registered", "user_id", user.ID, "role", user.Role, "school_id", user.SchoolID)
	return g.issue(user)
}

// Login answers unknown email and wrong password identically, and hashes a
// dummy password for unknown emails so both paths cost the same.
func (g *Gate) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apierr.Validation("missing_fields", "Email and password are required.")
	}

	user, err := g.users.FindUserByEmail(ctx, email)
	if err != nil {
		if !apierr.IsNotFound(err) {
			return nil, err
		}
		_, _ = g.hasher.Verify(password, g.dummy())
		g.log.Info("Login failed", "reason", "unknown_email")
		return nil, errInvalidCredentials
	}

	ok, err := g.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		g.log.Warn("Stored password hash unreadable", "user_id", user.ID, "err", err)
	}
	if !ok {
		g.log.Info("Login failed", "reason", "wrong_password", "user_id", user.ID)
		return nil, errInvalidCredentials
	}
	return g.issue(user)
}

// LoginByEmail is used by external identity providers that already proved
// ownership of email. Only existing users may sign in this way.
func (g *Gate) LoginByEmail(ctx context.Context, email string) (*Session, error) {
	user, err := g.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apierr.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	return g.issue(user)
}

// Verify parses the token and rejects revoked ones.
func (g *Gate) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		g.log.Debug("Token rejected", "err", err)
		return nil, errInvalidToken
	}
	revoked, err := g.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if revoked {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Refresh issues a new token carrying the user's current data and revokes
// the presented one.
func (g *Gate) Refresh(ctx context.Context, claims *Claims) (*Session, error) {
	user, err := g.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if apierr.IsNotFound(err) {
			return nil, errInvalidToken
		}
		return nil, err
	}
	session, err := g.issue(user)
	if err != nil {
		return nil, err
	}
	if err := g.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return session, nil
}

func (g *Gate) Logout(ctx context.Context, claims *Claims) error {
	if err := g.revoke(ctx, claims); err != nil {
		return err
	}
	g.log.Info("User logged out", "user_id", claims.UserID)
	return nil
}

// Reissue signs a token for user without touching the revocation list.
func (g *Gate) Reissue(user *models.User) (*Session, error) {
	return g.issue(user)
}

func (g *Gate) revoke(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := g.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (g *Gate) issue(user *models.User) (*Session, error) {
	token, claims, err := g.tokens.Issue(user)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}

func (g *Gate) dummy() string {
	g.dummyOnce.Do(func() {
		g.dummyHash, _ = g.hasher.Hash("meqenet-dummy-password")
	})
	return g.dummyHash
}
