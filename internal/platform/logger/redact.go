package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// redactor rewrites values by key. Keys containing a drop needle lose their
// value; keys containing a hash needle keep a salted digest so one actor's
// lines still group together.
type redactor struct {
	enabled bool
	salt    string
	drop    []string
	hash    []string
}

var defaultRedactor = sync.OnceValue(func() *redactor {
	r := &redactor{
		enabled: true,
		salt:    strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
		drop:    []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email"},
		hash:    []string{"user_id", "tutor_id", "admin_id", "actor_id"},
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	return r
})

func sanitizeKVs(kv []any) []any {
	r := defaultRedactor()
	if !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = r.value(keyOf(out[i]), out[i+1])
	}
	return out
}

func (r *redactor) value(key string, val any) any {
	switch {
	case key == "":
		return val
	case containsAny(key, r.drop):
		return redacted
	case containsAny(key, r.hash):
		return r.digest(val)
	}
	switch v := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = r.value(keyOf(k), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) digest(val any) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func keyOf(k any) string {
	return strings.ToLower(strings.TrimSpace(stringify(k)))
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func looksLikeJWT(s string) bool {
	head, rest, ok := strings.Cut(s, ".")
	if !ok {
		return false
	}
	payload, sig, ok := strings.Cut(rest, ".")
	return ok && !strings.Contains(sig, ".") && len(head) > 10 && len(payload) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
