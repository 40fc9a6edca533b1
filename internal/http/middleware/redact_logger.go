// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger for the storefront.
// Customer phone numbers travel through query strings and headers (WhatsApp
// ids, partner phones), so every logged value is scrubbed first. Bodies are
// never logged. The logger also attaches a request-scoped zerolog.Logger
// that handlers fetch with LoggerFrom.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders adds headers whose values are replaced with "[REDACTED]".
	// Authorization, Cookie, Set-Cookie and X-Hub-Signature-256 are always
	// masked.
	MaskHeaders []string
	// MaskQuery adds query parameters whose values are replaced. The webhook
	// handshake parameters are always masked.
	MaskQuery []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digit runs shaped like phone numbers, with optional country code and
	// separators: "919845012345", "+91 98450 12345", "(080) 2345-6789".
	phoneRE = regexp.MustCompile(`\+?\(?\d{2,4}\)?[ .\-]?\d{3,5}[ .\-]?\d{4,6}\b`)
)

// Redact scrubs ids, emails and phone numbers from s. UUIDs go first so the
// phone pattern never bites into their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger logs each request once it completes: info for 2xx/3xx,
// warn for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization":       {},
		"cookie":              {},
		"set-cookie":          {},
		"x-hub-signature-256": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskQuery := map[string]struct{}{
		"hub.verify_token": {},
		"verify_token":     {},
		"hub.challenge":    {},
		"challenge":        {},
	}
	for _, q := range opts.MaskQuery {
		if q = strings.TrimSpace(q); q != "" {
			maskQuery[q] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		query := truncate(scrubQuery(c.Request.URL.RawQuery, maskQuery), maxQueryLogLength)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		scoped := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		status := c.Writer.Status()
		ev := scoped.Info()
		switch {
		case status >= 500:
			ev = scoped.Error()
		case status >= 400:
			ev = scoped.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", Redact(c.Errors.String()))
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// scrubQuery masks sensitive parameters and redacts the rest. Unparseable
// queries are redacted as a whole.
func scrubQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return Redact(raw)
	}
	for k, vv := range vals {
		if _, ok := mask[k]; ok {
			vals[k] = []string{"[REDACTED]"}
			continue
		}
		for i, v := range vv {
			vv[i] = Redact(v)
		}
	}
	out := vals.Encode()
	if s, err := url.QueryUnescape(out); err == nil {
		return s
	}
	return out
}
