package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type captured struct {
	mu      sync.Mutex
	path    string
	auth    string
	payload map[string]any
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &rec.payload)
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(srv *httptest.Server, observe func(string, error)) *Client {
	return NewClient(Config{BaseURL: srv.URL, APIVersion: "v17.0", PhoneID: "PHONE", Token: "tok"},
		WithHTTPClient(srv.Client()), WithObserver(observe))
}

func TestClient_SendText_RequestShape(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK)
	var kinds []string
	c := newTestClient(srv, func(kind string, err error) { kinds = append(kinds, kind) })

	if err := c.SendText(context.Background(), "9198", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if rec.path != "/v17.0/PHONE/messages" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", rec.auth)
	}
	if rec.payload["to"] != "9198" || rec.payload["type"] != "text" {
		t.Fatalf("unexpected payload: %v", rec.payload)
	}
	if len(kinds) != 1 || kinds[0] != "text" {
		t.Fatalf("expected observer to see one text send, got %v", kinds)
	}
}

func TestClient_SendButtons_LimitsAndTruncation(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK)
	c := newTestClient(srv, nil)
	ctx := context.Background()

	err := c.SendButtons(ctx, "9198", "pick", []Button{{"a", "A"}, {"b", "B"}, {"c", "C"}, {"d", "D"}})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage for 4 buttons, got %v", err)
	}

	long := "A very long button title indeed"
	if err := c.SendButtons(ctx, "9198", "pick", []Button{{"x", long}}); err != nil {
		t.Fatalf("SendButtons: %v", err)
	}
	inter := rec.payload["interactive"].(map[string]any)
	btns := inter["action"].(map[string]any)["buttons"].([]any)
	title := btns[0].(map[string]any)["reply"].(map[string]any)["title"].(string)
	if n := len([]rune(title)); n > MaxButtonTitle {
		t.Fatalf("button title not truncated: %q (%d runes)", title, n)
	}
}

func TestClient_SendList_ClampsRows(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK)
	c := newTestClient(srv, nil)

	rows := make([]Row, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, Row{ID: "r", Title: strings.Repeat("x", 30), Description: strings.Repeat("d", 100)})
	}
	err := c.SendList(context.Background(), "9198", List{Header: "H", Body: "B", ButtonText: "Browse", Sections: []Section{{Title: "S", Rows: rows}}})
	if err != nil {
		t.Fatalf("SendList: %v", err)
	}
	sections := rec.payload["interactive"].(map[string]any)["action"].(map[string]any)["sections"].([]any)
	got := sections[0].(map[string]any)["rows"].([]any)
	if len(got) != MaxListRows {
		t.Fatalf("expected %d rows, got %d", MaxListRows, len(got))
	}
	r0 := got[0].(map[string]any)
	if len([]rune(r0["title"].(string))) > MaxRowTitle || len([]rune(r0["description"].(string))) > MaxRowDescription {
		t.Fatalf("row not truncated: %v", r0)
	}

	if err := c.SendList(context.Background(), "9198", List{Body: "empty"}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage for empty list, got %v", err)
	}
}

func TestClient_MarkAsRead_AndOtherKinds(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK)
	c := newTestClient(srv, nil)
	ctx := context.Background()

	if err := c.MarkAsRead(ctx, "wamid.1"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if rec.payload["status"] != "read" || rec.payload["message_id"] != "wamid.1" {
		t.Fatalf("unexpected read payload: %v", rec.payload)
	}

	if err := c.SendAddressMessage(ctx, "9198", "Share your address"); err != nil {
		t.Fatalf("SendAddressMessage: %v", err)
	}
	if rec.payload["interactive"].(map[string]any)["type"] != "address_message" {
		t.Fatalf("unexpected address payload: %v", rec.payload)
	}

	if err := c.SendCatalog(ctx, "9198", "Browse", "SKU1"); err != nil {
		t.Fatalf("SendCatalog: %v", err)
	}
	if rec.payload["interactive"].(map[string]any)["type"] != "catalog_message" {
		t.Fatalf("unexpected catalog payload: %v", rec.payload)
	}
}

func TestClient_Non2xxSurfacesAPIError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest)
	var observed error
	c := newTestClient(srv, func(_ string, err error) { observed = err })

	err := c.SendText(context.Background(), "9198", "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Body, "bad") {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if observed == nil {
		t.Fatalf("observer should see the failure")
	}
}

func TestClient_TransportError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	c := newTestClient(srv, nil)
	srv.Close()
	if err := c.SendText(context.Background(), "9198", "x"); err == nil {
		t.Fatalf("expected transport error after server close")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("🍚 Basmati Rice Premium", 10); len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("got %q", got)
	}
}
