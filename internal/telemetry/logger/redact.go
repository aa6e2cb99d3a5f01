package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

const masked = "***REDACTED***"

// replaceAttr keeps stored data and secrets out of the output.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	return redact(a)
}

func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	key := strings.ToLower(a.Key)
	if key == "value" || key == "payload" {
		if n, ok := byteLen(a.Value); ok {
			return slog.String(a.Key, "<"+strconv.Itoa(n)+" bytes>")
		}
		return a
	}
	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && secretKey(key) {
		return slog.String(a.Key, masked)
	}
	return a
}

// byteLen returns the length of string and []byte values.
func byteLen(v slog.Value) (int, bool) {
	switch v.Kind() {
	case slog.KindString:
		return len(v.String()), true
	case slog.KindAny:
		if b, ok := v.Any().([]byte); ok {
			return len(b), true
		}
	}
	return 0, false
}

func secretKey(key string) bool {
	for _, s := range []string{"password", "secret", "token", "credential"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
