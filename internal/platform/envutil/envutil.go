// Package envutil reads typed settings from the environment. Unset, blank
// or unparsable values yield the supplied default.
package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup[T any](name string, def T, parse func(string) (T, bool)) T {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	if v, ok := parse(raw); ok {
		return v
	}
	return def
}

func String(name, def string) string {
	return lookup(name, def, func(s string) (string, bool) { return s, true })
}

func Int(name string, def int) int {
	return lookup(name, def, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
}

// Bool accepts 1/0, true/false, yes/no and on/off.
func Bool(name string, def bool) bool {
	return lookup(name, def, func(s string) (bool, bool) {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
		return false, false
	})
}

// Duration takes a Go duration ("1m30s") or a bare number of seconds.
// Non-positive values fall back to def.
func Duration(name string, def time.Duration) time.Duration {
	return lookup(name, def, func(s string) (time.Duration, bool) {
		d, err := time.ParseDuration(s)
		if err != nil {
			n, nerr := strconv.Atoi(s)
			d, err = time.Duration(n)*time.Second, nerr
		}
		return d, err == nil && d > 0
	})
}
