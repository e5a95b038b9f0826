package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meqenet/meqenet-back/internal/models"
)

type Claims struct {
	UserID             uint            `json:"user_id"`
	Email              string          `json:"email"`
	Role               models.Role     `json:"role"`
	SchoolID           uint            `json:"school_id"`
	LanguagePreference models.Language `json:"language_preference,omitempty"`
	jwt.RegisteredClaims
}

// Keyring signs with the active secret and verifies with the active or any
// retired secret. Keys are addressed by the token's kid header.
type Keyring struct {
	activeID string
	keys     map[string][]byte
}

func keyID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:8]
}

func NewKeyring(active string, retired ...string) (*Keyring, error) {
	if active == "" {
		return nil, errors.New("signing secret is empty")
	}
	k := &Keyring{activeID: keyID(active), keys: map[string][]byte{}}
	k.keys[k.activeID] = []byte(active)
	for _, secret := range retired {
		if secret != "" {
			k.keys[keyID(secret)] = []byte(secret)
		}
	}
	return k, nil
}

type TokenManager struct {
	keys   *Keyring
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(keys *Keyring, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{keys: keys, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for user and returns it with its claims.
func (m *TokenManager) Issue(user *models.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:             user.ID,
		Email:              user.Email,
		Role:               user.Role,
		SchoolID:           user.SchoolID,
		LanguagePreference: user.LanguagePreference,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = m.keys.activeID
	signed, err := token.SignedString(m.keys.keys[m.keys.activeID])
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (m *TokenManager) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := m.keys.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
