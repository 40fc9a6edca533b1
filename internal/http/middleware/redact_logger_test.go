package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRedact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"wa 919845012345", "wa [REDACTED:phone]"},
		{"call +91 98450 12345 now", "call [REDACTED:phone] now"},
		{"mail a.b+tag@example.com", "mail [REDACTED:email]"},
		{"id 123e4567-e89b-12d3-a456-426614174000", "id [REDACTED:id]"},
		{"order ORD-240301-ABC123 qty 2", "order ORD-240301-ABC123 qty 2"},
	}
	for _, tc := range cases {
		if got := Redact(tc.in); got != tc.want {
			t.Fatalf("Redact(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-resp"); c.Next() })
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/api/webhook/whatsapp", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside handler")
		c.String(http.StatusOK, "ok")
	})

	q := "hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=777&wa=919845012345"
	req := httptest.NewRequest(http.MethodGet, "/api/webhook/whatsapp?"+q, nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Hub-Signature-256", "sha256=abc")
	req.Header.Set("X-Api-Key", "ops")
	req.Header.Set("X-Custom", "wa 919845012345 mail a@b.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/api/webhook/whatsapp"`,
		`"request_id":"rid-resp"`,
		`hub.verify_token=[REDACTED]`,
		`hub.challenge=[REDACTED]`,
		`hub.mode=subscribe`,
		`wa=[REDACTED:phone]`,
		`"Authorization":"[REDACTED]"`,
		`"X-Hub-Signature-256":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"wa [REDACTED:phone] mail [REDACTED:email]"`,
		`"message":"inside handler"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("missing %s in logs:\n%s", want, logs)
		}
	}
	for _, leak := range []string{"s3cret", "919845012345", "sha256=abc", "Bearer token"} {
		if strings.Contains(logs, leak) {
			t.Fatalf("leaked %q in logs:\n%s", leak, logs)
		}
	}
}

func TestRedactingLogger_LevelsAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) {
		_ = c.Error(errBoom{})
		c.Status(http.StatusInternalServerError)
	})

	for path, rid := range map[string]string{"/warn": "rid-warn", "/error": "rid-err"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(requestIDHeader, rid)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn entry missing: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) || !strings.Contains(logs, `"errors"`) {
		t.Fatalf("error entry missing: %s", logs)
	}
}

func TestScrubQuery_Unparseable(t *testing.T) {
	if got := scrubQuery("a=%zz&wa=919845012345", nil); strings.Contains(got, "919845012345") {
		t.Fatalf("unparseable query not redacted: %q", got)
	}
	if scrubQuery("", nil) != "" {
		t.Fatalf("empty query should stay empty")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
