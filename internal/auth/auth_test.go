package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
	"github.com/meqenet/meqenet-back/internal/store"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

var testHasher = Hasher{Memory: 64, Iterations: 1, Parallelism: 1}

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	mem := store.NewMemory()
	if err := store.SeedSchools(context.Background(), mem); err != nil {
		t.Fatalf("seed: %v", err)
	}
	keys, err := NewKeyring(testSecret)
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return NewGate(mem, testHasher, NewTokenManager(keys, "meqenet-test", time.Hour), NewMemoryRevoker(), logger.Nop())
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := testHasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected encoding %s", hash)
	}
	if ok, err := testHasher.Verify("correct horse", hash); err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if ok, _ := testHasher.Verify("wrong horse", hash); ok {
		t.Fatalf("expected mismatch")
	}
	again, _ := testHasher.Hash("correct horse")
	if again == hash {
		t.Fatalf("expected a fresh salt per hash")
	}
	if _, err := testHasher.Verify("x", "plain-text"); err == nil {
		t.Fatalf("expected malformed hash error")
	}
}

func TestTokenRoundTripAndTampering(t *testing.T) {
	keys, _ := NewKeyring(testSecret)
	tm := NewTokenManager(keys, "meqenet-test", time.Hour)
	user := &models.User{ID: 7, Email: "t@s.et", Role: models.RoleAdmin, SchoolID: 2, LanguagePreference: models.LanguageOromoo}

	raw, issued, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tm.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleAdmin || claims.SchoolID != 2 || claims.ID != issued.ID {
		t.Fatalf("claims not reproduced: %+v", claims)
	}

	i := strings.LastIndex(raw, ".") + 5
	flipped := []byte(raw)
	if flipped[i] == 'A' {
		flipped[i] = 'B'
	} else {
		flipped[i] = 'A'
	}
	if _, err := tm.Verify(string(flipped)); err == nil {
		t.Fatalf("expected tampered token to fail")
	}

	other, _ := NewKeyring("another-secret-0123456789abcdef0123")
	if _, err := NewTokenManager(other, "meqenet-test", time.Hour).Verify(raw); err == nil {
		t.Fatalf("expected foreign key to fail")
	}
	if _, err := NewTokenManager(keys, "someone-else", time.Hour).Verify(raw); err == nil {
		t.Fatalf("expected wrong issuer to fail")
	}
}

func TestTokenExpiresAndRotates(t *testing.T) {
	oldKeys, _ := NewKeyring("old-secret-0123456789abcdef01234567")
	oldTM := NewTokenManager(oldKeys, "meqenet-test", time.Minute)
	raw, _, _ := oldTM.Issue(&models.User{ID: 1, Email: "a@b.et", Role: models.RoleTeacher, SchoolID: 1})

	rotated, _ := NewKeyring(testSecret, "old-secret-0123456789abcdef01234567")
	tm := NewTokenManager(rotated, "meqenet-test", time.Minute)
	if _, err := tm.Verify(raw); err != nil {
		t.Fatalf("expected retired key to verify, got %v", err)
	}

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tm.Verify(raw); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()

	session, err := gate.Register(ctx, RegisterInput{Email: "teacher@school1.et", Password: "pw-123456", FirstName: "Tigist", SchoolID: 1})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.Role != models.RoleTeacher || session.User.LanguagePreference != models.DefaultLanguage {
		t.Fatalf("unexpected defaults: %+v", session.User)
	}
	if session.User.PasswordHash == "pw-123456" {
		t.Fatalf("password stored in clear")
	}

	cases := []struct {
		name string
		in   RegisterInput
		kind apierr.Kind
	}{
		{"duplicate email", RegisterInput{Email: "teacher@school1.et", Password: "other", FirstName: "X", SchoolID: 2, Role: "Admin"}, apierr.KindConflict},
		{"missing password", RegisterInput{Email: "a@b.et", FirstName: "X", SchoolID: 1}, apierr.KindValidation},
		{"bad role", RegisterInput{Email: "a@b.et", Password: "p", FirstName: "X", SchoolID: 1, Role: "Principal"}, apierr.KindValidation},
		{"unknown school", RegisterInput{Email: "a@b.et", Password: "p", FirstName: "X", SchoolID: 99}, apierr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := gate.Register(ctx, tc.in); apierr.KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}

	login, err := gate.Login(ctx, "teacher@school1.et", "pw-123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := gate.Verify(ctx, login.Token); err != nil {
		t.Fatalf("verify login token: %v", err)
	}

	_, wrongPassword := gate.Login(ctx, "teacher@school1.et", "nope")
	_, unknownEmail := gate.Login(ctx, "ghost@school1.et", "nope")
	s1, b1 := apierr.Response(wrongPassword)
	s2, b2 := apierr.Response(unknownEmail)
	if s1 != http.StatusUnauthorized || s1 != s2 || b1 != b2 {
		t.Fatalf("expected identical failures, got %d %+v and %d %+v", s1, b1, s2, b2)
	}
}

func TestLogoutAndRefreshRevoke(t *testing.T) {
	gate := newTestGate(t)
	ctx := context.Background()
	session, _ := gate.Register(ctx, RegisterInput{Email: "t@s.et", Password: "pw", FirstName: "T", SchoolID: 1})

	refreshed, err := gate.Refresh(ctx, session.Claims)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := gate.Verify(ctx, session.Token); apierr.KindOf(err) != apierr.KindForbidden {
		t.Fatalf("expected refreshed-away token to be revoked, got %v", err)
	}
	if err := gate.Logout(ctx, refreshed.Claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := gate.Verify(ctx, refreshed.Token); apierr.KindOf(err) != apierr.KindForbidden {
		t.Fatalf("expected logged-out token to be revoked, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := newTestGate(t)
	admin, _ := gate.Register(context.Background(), RegisterInput{Email: "admin@s.et", Password: "pw", FirstName: "A", SchoolID: 1, Role: "Admin"})
	teacher, _ := gate.Register(context.Background(), RegisterInput{Email: "teacher@s.et", Password: "pw", FirstName: "T", SchoolID: 1})

	r := gin.New()
	r.GET("/me", Middleware(gate), func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	r.GET("/admin", Middleware(gate), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
		code   string
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized, "missing_token"},
		{"garbage token", "/me", "Bearer not-a-jwt", http.StatusForbidden, "invalid_token"},
		{"valid token", "/me", "Bearer " + teacher.Token, http.StatusOK, ""},
		{"teacher on admin route", "/admin", "Bearer " + teacher.Token, http.StatusForbidden, "forbidden"},
		{"admin on admin route", "/admin", "Bearer " + admin.Token, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.code != "" {
				var body apierr.Body
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Code != tc.code {
					t.Fatalf("expected code %s, got %s", tc.code, body.Code)
				}
			}
		})
	}
}

func TestMemoryRevokerForgetsExpiredEntries(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	_ = r.Revoke(ctx, "live", now.Add(time.Minute))
	_ = r.Revoke(ctx, "already-expired", now.Add(-time.Minute))
	if ok, _ := r.IsRevoked(ctx, "live"); !ok {
		t.Fatalf("expected live jti to be revoked")
	}
	if ok, _ := r.IsRevoked(ctx, "already-expired"); ok {
		t.Fatalf("expected expired jti to be ignored")
	}

	r.now = func() time.Time { return now.Add(2 * time.Minute) }
	if ok, _ := r.IsRevoked(ctx, "live"); ok {
		t.Fatalf("expected revocation to lapse after expiry")
	}
}

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis revocation tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}

	r := NewRedisRevoker(client)
	jti := "test-" + time.Now().Format(time.RFC3339Nano)
	if ok, err := r.IsRevoked(ctx, jti); err != nil || ok {
		t.Fatalf("expected fresh jti to be valid, got %v %v", ok, err)
	}
	if err := r.Revoke(ctx, jti, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := r.IsRevoked(ctx, jti); err != nil || !ok {
		t.Fatalf("expected jti to be revoked, got %v %v", ok, err)
	}
}

func TestGoogleRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestGate(t), nil, logger.Nop())
	r := gin.New()
	r.GET("/login", h.GoogleLogin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when disabled, got %d", w.Code)
	}
}

func TestGoogleLoginSetsStateCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestGate(t), NewGoogle("client-id", "client-secret", "http://localhost/cb"), logger.Nop())
	r := gin.New()
	r.GET("/login", h.GoogleLogin)
	r.GET("/callback", h.GoogleCallback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Location"), "accounts.google.com") {
		t.Fatalf("unexpected redirect %s", w.Header().Get("Location"))
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), stateCookie+"=") {
		t.Fatalf("expected state cookie")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "real"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected state mismatch to be rejected, got %d", w.Code)
	}
}
