package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/whatsapp-storefront/internal/config"
	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/http/middleware"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

const webhookBody = `{"object":"whatsapp_business_account","entry":[{"id":"WABA","changes":[{"field":"messages","value":{
  "messaging_product":"whatsapp",
  "contacts":[{"wa_id":"919812345678","profile":{"name":"Asha"}}],
  "messages":[{"id":"wamid.R1","from":"919812345678","timestamp":"1717000000","type":"text","text":{"body":"menu"}}]}}]}]}`

type countingDispatcher struct {
	mu     sync.Mutex
	events int
}

func (d *countingDispatcher) Dispatch(_ context.Context, evts []whatsapp.Event) {
	d.mu.Lock()
	d.events += len(evts)
	d.mu.Unlock()
}

func (d *countingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig(base string) config.Config {
	return config.Config{
		APIBasePath:    base,
		RateRPS:        100,
		RateBurst:      10,
		CORS:           config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: time.Hour,
		WhatsApp:       config.WhatsAppConfig{VerifyToken: "verify-me"},
	}
}

func newRouter(t *testing.T, db *gorm.DB, d *countingDispatcher, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, Deps{Dispatcher: d}, cfg)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, newTestDB(t), &countingDispatcher{}, testConfig("/api/v1"))

	// /health works
	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w := do(r, http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/health = %d", w.Code)
	}

	// /metrics is wired
	w = do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	if w := do(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	if w := do(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// Swagger is off unless enabled.
	if w := do(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig("/api/v2")
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(t, newTestDB(t), &countingDispatcher{}, cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig("/api")
	cfg.SwaggerEnabled = true
	r := newRouter(t, newTestDB(t), &countingDispatcher{}, cfg)

	w := do(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("swagger doc is not JSON: %v", err)
	}
	if doc["basePath"] != "/api" {
		t.Fatalf("basePath = %v", doc["basePath"])
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	if w := do(r, http.MethodPost, "/echo", "0123456789AB", nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/echo", "0123", nil); w.Code != http.StatusOK {
		t.Fatalf("small body rejected: %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	// non-root prefix
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := do(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

func Test_joinPath(t *testing.T) {
	cases := []struct{ base, p, want string }{
		{"", "/orders", "/orders"},
		{"/", "/orders", "/orders"},
		{"/api", "/orders", "/api/orders"},
	}
	for _, tc := range cases {
		if got := joinPath(tc.base, tc.p); got != tc.want {
			t.Fatalf("joinPath(%q,%q)=%q want %q", tc.base, tc.p, got, tc.want)
		}
	}
}

// Smoke test that a request traverses request id + security headers + gzip.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig("/api")
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // only set on https
	r := newRouter(t, newTestDB(t), &countingDispatcher{}, cfg)

	w := do(r, http.MethodGet, "/api/orders", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/orders = %d body=%s", w.Code, w.Body.String())
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("orders must not be cached, Cache-Control=%q", cc)
	}

	w = do(r, http.MethodGet, "/api/products", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/products = %d", w.Code)
	}
	if enc := w.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("REST responses should be gzip-encoded, got %q", enc)
	}
}

func Test_idempotencyShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := idempotencyShim{db: db, ttl: time.Hour}
	ctx := context.Background()
	const scope = "POST /api/orders"

	// --- miss ---
	if rid, found, err := shim.Lookup(ctx, scope, "k1"); err != nil || found || rid != "" {
		t.Fatalf("Lookup miss: rid=%q found=%v err=%v", rid, found, err)
	}
	if ok, err := shim.exists(ctx, scope, "k1", time.Now().UTC()); err != nil || ok {
		t.Fatalf("exists miss: ok=%v err=%v", ok, err)
	}

	// --- save + hit ---
	if err := shim.Save(ctx, scope, "k1", "42", http.StatusCreated); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rid, found, err := shim.Lookup(ctx, scope, "k1")
	if err != nil || !found || rid != "42" {
		t.Fatalf("Lookup hit: rid=%q found=%v err=%v", rid, found, err)
	}
	if ok, err := shim.exists(ctx, scope, "k1", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("exists hit: ok=%v err=%v", ok, err)
	}

	// Same key in another scope is independent.
	if _, found, _ := shim.Lookup(ctx, "POST /api/products", "k1"); found {
		t.Fatalf("scopes must not collide")
	}

	// --- duplicate ---
	if err := shim.Save(ctx, scope, "k1", "43", http.StatusCreated); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("duplicate Save err=%v", err)
	}

	// --- expired ---
	if ok, _ := shim.exists(ctx, scope, "k1", time.Now().Add(2*time.Hour)); ok {
		t.Fatalf("expired record still live")
	}
}

func TestRegisterRoutes_OrderReplay(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, &countingDispatcher{}, testConfig("/api"))

	now := time.Now().UTC()
	cust := domain.Customer{Phone: "919800000009", Name: "Ravi", LastActiveAt: now, ConversationState: domain.StateWelcome, StateUpdatedAt: now}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	w := do(r, http.MethodPost, "/api/products", `{"base_name":"Sugar","variants":[{"weight":"1kg","price":45,"stock":10}]}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product = %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Product domain.Product `json:"product"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || len(created.Product.Variants) != 1 {
		t.Fatalf("decode product: %v", err)
	}

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"variant_id":%d,"quantity":2}],"payment_method":"COD"}`,
		cust.ID, created.Product.Variants[0].ID)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "retry-1"}

	first := do(r, http.MethodPost, "/api/orders", body, hdr)
	second := do(r, http.MethodPost, "/api/orders", body, hdr)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("codes = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("second request was not a replay")
	}

	var n int64
	db.Model(&domain.Order{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 order, got %d", n)
	}
	var rec domain.Idempotency
	if err := db.Where("key = ?", "retry-1").First(&rec).Error; err != nil {
		t.Fatalf("idempotency record: %v", err)
	}
	if rec.Scope != "POST /api/orders" || rec.Status != http.StatusCreated {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRegisterRoutes_WebhookOutsideRateLimit(t *testing.T) {
	cfg := testConfig("/api")
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	d := &countingDispatcher{}
	r := newRouter(t, newTestDB(t), d, cfg)

	if w := do(r, http.MethodGet, "/api/products", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first REST call = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/products", "", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second REST call should be limited, got %d", w.Code)
	}

	for i := 0; i < 5; i++ {
		if w := do(r, http.MethodPost, "/api/webhook/whatsapp", webhookBody, nil); w.Code != http.StatusOK {
			t.Fatalf("webhook delivery %d = %d", i, w.Code)
		}
	}
	if d.count() != 5 {
		t.Fatalf("dispatched %d events, want 5", d.count())
	}

	w := do(r, http.MethodGet, "/api/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=77", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "77" {
		t.Fatalf("verify = %d %q", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_IdempotencyLookupError(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, &countingDispatcher{}, testConfig("/api"))

	// Force queries to fail by closing the underlying connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	w := do(r, http.MethodPost, "/api/orders", `{"customer_id":1,"items":[{"variant_id":1,"quantity":1}],"payment_method":"COD"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "force-error"})
	if w.Code == http.StatusCreated || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("lookup error must not be treated as a replay: %d", w.Code)
	}
}
