package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// DefaultCatalogTTL bounds how stale the catalog index may get.
const DefaultCatalogTTL = 5 * time.Minute

// CatalogSearcher keeps an Index over active products and rebuilds it from
// the store once it is older than TTL or after Invalidate.
type CatalogSearcher struct {
	DB   *gorm.DB
	TTL  time.Duration
	Opts []Option

	mu      sync.RWMutex
	idx     Index
	builtAt time.Time
	now     func() time.Time
}

// NewCatalogSearcher returns a searcher with DefaultCatalogTTL.
func NewCatalogSearcher(db *gorm.DB, opts ...Option) *CatalogSearcher {
	return &CatalogSearcher{DB: db, TTL: DefaultCatalogTTL, Opts: opts, now: time.Now}
}

// Invalidate forces the next search to rebuild.
func (s *CatalogSearcher) Invalidate() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
}

// Search returns up to k products matching q.
func (s *CatalogSearcher) Search(ctx context.Context, q string, k int) ([]Result, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return idx.TopK(q, k), nil
}

func (s *CatalogSearcher) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *CatalogSearcher) current(ctx context.Context) (Index, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}

	s.mu.RLock()
	idx, built := s.idx, s.builtAt
	s.mu.RUnlock()
	if idx != nil && s.clock().Sub(built) < ttl {
		return idx, nil
	}

	products, err := repo.ListAllActiveProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(products))
	for _, p := range products {
		docs = append(docs, Document{
			ID:   p.ID,
			Text: strings.TrimSpace(p.BaseName + " " + p.Description),
		})
	}
	idx = NewIndexFromDocuments(docs, s.Opts...)

	s.mu.Lock()
	s.idx, s.builtAt = idx, s.clock()
	s.mu.Unlock()
	return idx, nil
}
