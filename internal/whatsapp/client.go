package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Provider limits for interactive messages.
const (
	MaxButtons          = 3
	MaxButtonTitle      = 20
	MaxListRows         = 10
	MaxRowTitle         = 24
	MaxRowDescription   = 72
	MaxSectionTitle     = 24
	MaxListButtonText   = 20
	MaxHeaderText       = 60
	MaxInteractiveBody  = 1024
	defaultAPIBaseURL   = "https://graph.facebook.com"
	defaultAPIVersion   = "v17.0"
	defaultHTTPTimeout  = 10 * time.Second
	messagingProduct    = "whatsapp"
	maxErrorBodyLogSize = 4 << 10
)

// Messenger is the outbound side of the bot. Each method issues exactly one
// request to the provider and returns its failure, if any.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to string, list List) error
	SendAddressMessage(ctx context.Context, to, body string) error
	SendCatalog(ctx context.Context, to, body, thumbnailSKU string) error
	MarkAsRead(ctx context.Context, messageID string) error
}

// Button is a reply button.
type Button struct {
	ID    string
	Title string
}

// Row is one selectable entry of a list message.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Section groups rows under a title.
type Section struct {
	Title string `json:"title,omitempty"`
	Rows  []Row  `json:"rows"`
}

// List is an interactive list message.
type List struct {
	Header     string
	Body       string
	Footer     string
	ButtonText string
	Sections   []Section
}

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api: status %d: %s", e.StatusCode, e.Body)
}

// ErrInvalidMessage is returned before any request is made when a message
// cannot be expressed within provider limits.
var ErrInvalidMessage = errors.New("whatsapp: invalid message")

// Config holds the Cloud API coordinates.
type Config struct {
	BaseURL    string
	APIVersion string
	PhoneID    string
	Token      string
	Timeout    time.Duration
}

// Client implements Messenger against the Cloud API /messages endpoint.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	observe  func(kind string, err error)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver registers a callback invoked after every send with the
// message kind and its outcome.
func WithObserver(fn func(kind string, err error)) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient returns a Client. The default transport is traced with otelhttp.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	c := &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIVersion + "/" + cfg.PhoneID + "/messages",
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, "text", map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body, "preview_url": false},
	})
}

// SendButtons sends up to MaxButtons reply buttons. Titles are truncated to
// MaxButtonTitle characters.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) == 0 || len(buttons) > MaxButtons {
		return fmt.Errorf("%w: %d buttons (want 1..%d)", ErrInvalidMessage, len(buttons), MaxButtons)
	}
	btns := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, map[string]any{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": Truncate(b.Title, MaxButtonTitle)},
		})
	}
	return c.post(ctx, "buttons", map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]string{"text": Truncate(body, MaxInteractiveBody)},
			"action": map[string]any{"buttons": btns},
		},
	})
}

// SendList sends a list message. Rows beyond MaxListRows (counted across all
// sections) are dropped and every title/description is truncated to
// provider limits.
func (c *Client) SendList(ctx context.Context, to string, list List) error {
	sections := clampSections(list.Sections)
	if len(sections) == 0 {
		return fmt.Errorf("%w: list without rows", ErrInvalidMessage)
	}
	btn := list.ButtonText
	if strings.TrimSpace(btn) == "" {
		btn = "Choose"
	}
	msg := map[string]any{
		"type": "list",
		"body": map[string]string{"text": Truncate(list.Body, MaxInteractiveBody)},
		"action": map[string]any{
			"button":   Truncate(btn, MaxListButtonText),
			"sections": sections,
		},
	}
	if list.Header != "" {
		msg["header"] = map[string]string{"type": "text", "text": Truncate(list.Header, MaxHeaderText)}
	}
	if list.Footer != "" {
		msg["footer"] = map[string]string{"text": Truncate(list.Footer, MaxHeaderText)}
	}
	return c.post(ctx, "list", map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive":       msg,
	})
}

// SendAddressMessage asks the customer to fill in the structured address
// form (India only on the provider side).
func (c *Client) SendAddressMessage(ctx context.Context, to, body string) error {
	return c.post(ctx, "address", map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type": "address_message",
			"body": map[string]string{"text": Truncate(body, MaxInteractiveBody)},
			"action": map[string]any{
				"name":       "address_message",
				"parameters": map[string]string{"country": "IN"},
			},
		},
	})
}

// SendCatalog sends a catalog preview message. thumbnailSKU is optional.
func (c *Client) SendCatalog(ctx context.Context, to, body, thumbnailSKU string) error {
	action := map[string]any{"name": "catalog_message"}
	if thumbnailSKU != "" {
		action["parameters"] = map[string]string{"thumbnail_product_retailer_id": thumbnailSKU}
	}
	return c.post(ctx, "catalog", map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "catalog_message",
			"body":   map[string]string{"text": Truncate(body, MaxInteractiveBody)},
			"action": action,
		},
	})
}

// MarkAsRead acknowledges an inbound message.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) error {
	return c.post(ctx, "read", map[string]any{
		"messaging_product": messagingProduct,
		"status":            "read",
		"message_id":        messageID,
	})
}

func (c *Client) post(ctx context.Context, kind string, payload any) (err error) {
	if c.observe != nil {
		defer func() { c.observe(kind, err) }()
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLogSize))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func clampSections(in []Section) []Section {
	out := make([]Section, 0, len(in))
	left := MaxListRows
	for _, s := range in {
		if left == 0 {
			break
		}
		rows := make([]Row, 0, len(s.Rows))
		for _, r := range s.Rows {
			if left == 0 {
				break
			}
			rows = append(rows, Row{
				ID:          r.ID,
				Title:       Truncate(r.Title, MaxRowTitle),
				Description: Truncate(r.Description, MaxRowDescription),
			})
			left--
		}
		if len(rows) > 0 {
			out = append(out, Section{Title: Truncate(s.Title, MaxSectionTitle), Rows: rows})
		}
	}
	return out
}

// Truncate shortens s to at most n characters, ending with an ellipsis when
// something was cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
