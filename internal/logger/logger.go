package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for the given mode: "production" emits JSON at info
// level, "test" discards everything, anything else is the development console
// encoder at debug level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		return Nop(), nil
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

type fieldAction int

const (
	keep fieldAction = iota
	redact
	pseudonymize
)

// fieldRules is matched by substring against the lowercased key, first match
// wins. User and learner ids are pseudonymised so one person's requests can
// still be followed across lines; names, birth dates and contact details are
// dropped. Lesson and CPD module ids are curriculum identifiers and pass
// through.
var fieldRules = []struct {
	match  string
	action fieldAction
}{
	{"password", redact},
	{"token", redact},
	{"authorization", redact},
	{"secret", redact},
	{"cookie", redact},
	{"oauth_state", redact},
	{"email", redact},
	{"first_name", redact},
	{"last_name", redact},
	{"date_of_birth", redact},
	{"unique_identifier", pseudonymize},
	{"learner_id", pseudonymize},
	{"teacher_id", pseudonymize},
	{"user_id", pseudonymize},
}

type redactionPolicy struct {
	enabled bool
	salt    string
}

var policy = sync.OnceValue(func() redactionPolicy {
	p := redactionPolicy{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		p.enabled = false
	}
	return p
})

func sanitizeKVs(kv []interface{}) []interface{} {
	pol := policy()
	if len(kv) == 0 || !pol.enabled {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 1; i < len(out); i += 2 {
		key, ok := out[i-1].(string)
		if !ok {
			key = fmt.Sprint(out[i-1])
			out[i-1] = key
		}
		out[i] = pol.apply(strings.ToLower(key), out[i])
	}
	return out
}

func (p redactionPolicy) apply(key string, val interface{}) interface{} {
	for _, r := range fieldRules {
		if !strings.Contains(key, r.match) {
			continue
		}
		switch r.action {
		case redact:
			return "[REDACTED]"
		case pseudonymize:
			return p.pseudonym(r.match, val)
		}
		return val
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return "[REDACTED]"
	}
	return val
}

// pseudonym is stable per (kind, value), so user 7 and learner 7 differ.
func (p redactionPolicy) pseudonym(kind string, val interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if val == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.salt + "|" + kind + "|" + raw))
	return strings.TrimSuffix(kind, "_id") + ":" + hex.EncodeToString(sum[:6])
}

// looksLikeJWT catches bearer tokens logged under unrelated keys. Every JWT
// header is base64 JSON and so starts with "eyJ".
func looksLikeJWT(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
	parts := strings.Split(s, ".")
	return len(parts) == 3 && strings.HasPrefix(parts[0], "eyJ") && parts[1] != ""
}
