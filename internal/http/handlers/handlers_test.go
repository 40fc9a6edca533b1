package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/http/middleware"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
	"github.com/tbourn/whatsapp-storefront/internal/services"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

// ---------- test DB + wiring ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	mu   sync.Mutex
	recs map[string]string
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]string{}} }

func (m *memIdem) Lookup(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rid, ok := m.recs[scope+"|"+key]
	return rid, ok, nil
}

func (m *memIdem) Save(_ context.Context, scope, key, rid string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[scope+"|"+key] = rid
	return nil
}

// recordingDispatcher captures dispatched batches.
type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]whatsapp.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events []whatsapp.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, events)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

const testVerifyToken = "verify-me"

type testEnv struct {
	DB         *gorm.DB
	H          *Handlers
	Router     *gin.Engine
	Idem       *memIdem
	Dispatcher *recordingDispatcher
	Products   *services.ProductService
	Orders     *services.OrderService
	Partners   *services.PartnerService
}

func newTestEnv(t *testing.T, appSecret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	env := &testEnv{
		DB:         db,
		Idem:       newMemIdem(),
		Dispatcher: &recordingDispatcher{},
		Products:   services.NewProductService(db, nil),
		Orders:     services.NewOrderService(db),
		Partners:   services.NewPartnerService(db),
	}
	env.H = New(env.Products, env.Orders, env.Partners,
		WithWebhook(WebhookConfig{VerifyToken: testVerifyToken, AppSecret: appSecret}, env.Dispatcher),
		WithIdempotencyStore(env.Idem),
	)
	env.Router = newTestRouter(env.H)
	return env
}

func newTestRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/health", Health)
	r.GET("/webhook/whatsapp", h.VerifyWebhook)
	r.POST("/webhook/whatsapp", h.ReceiveWebhook)
	r.GET("/products", h.ListProducts)
	r.POST("/products", h.CreateProduct)
	r.POST("/products/bulk", h.BulkImportProducts)
	r.GET("/orders", h.ListOrders)
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders/:id", h.GetOrder)
	r.PUT("/orders/:id/status", h.UpdateOrderStatus)
	r.GET("/partners", h.ListPartners)
	r.POST("/partners", h.RegisterPartner)
	r.PUT("/partners/:id/status", h.UpdatePartnerStatus)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", out, err, w.Body.String())
	}
	return out
}

func seedCustomer(t *testing.T, db *gorm.DB, phone string) domain.Customer {
	t.Helper()
	now := time.Now().UTC()
	c := domain.Customer{
		Phone:             phone,
		Name:              "Asha",
		LastActiveAt:      now,
		ConversationState: domain.StateWelcome,
		StateUpdatedAt:    now,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

// ---------- tests ----------

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	w := doJSON(t, env.Router, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != "ok" || resp.Timestamp.IsZero() {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id not echoed")
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"?page=3&page_size=5", 3, 5},
		{"?page=0&page_size=0", 1, 1},
		{"?page=x&page_size=1000", 1, 100},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/orders"+tc.query, nil)
		p, s := clampPagination(c)
		if p != tc.page || s != tc.size {
			t.Fatalf("%q: got %d,%d want %d,%d", tc.query, p, s, tc.page, tc.size)
		}
	}

	pg := newPagination(2, 20, 41)
	if pg.TotalPages != 3 || !pg.HasNext {
		t.Fatalf("unexpected pagination: %+v", pg)
	}
	if pg = newPagination(3, 20, 41); pg.HasNext {
		t.Fatalf("last page should not have next: %+v", pg)
	}
}
