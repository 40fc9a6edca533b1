package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// DefaultWindow is the inactivity period after which a sender starts a new
// session.
const DefaultWindow = 24 * time.Hour

var tracer = otel.Tracer("session/gate")

// Entry is what the gate records for one inbound message.
type Entry struct {
	MessageID string
	Sender    string
	Kind      string
	Content   string
	Payload   []byte
}

// Decision is the gate's verdict on an inbound message.
type Decision struct {
	// Accepted is false when the message was already processed. Callers must
	// then skip every side effect, replies included.
	Accepted bool
	// NewSession is true when the sender had no other activity within the
	// window.
	NewSession bool
}

// Gate deduplicates inbound messages against the conversation log and
// classifies session boundaries.
type Gate struct {
	DB     *gorm.DB
	Cache  Cache
	Window time.Duration
	Now    func() time.Time
}

// NewGate builds a Gate with the default window and wall clock. cache may be
// nil.
func NewGate(db *gorm.DB, cache Cache) *Gate {
	return &Gate{DB: db, Cache: cache, Window: DefaultWindow, Now: time.Now}
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *Gate) window() time.Duration {
	if g.Window > 0 {
		return g.Window
	}
	return DefaultWindow
}

// Admit logs the message and classifies it. The insert is the dedup point:
// if another delivery of the same message id got there first, Admit returns
// Accepted=false and touches nothing else.
func (g *Gate) Admit(ctx context.Context, e Entry) (Decision, error) {
	ctx, span := tracer.Start(ctx, "Gate.Admit")
	defer span.End()
	span.SetAttributes(attribute.String("message_id", e.MessageID))

	if strings.TrimSpace(e.MessageID) == "" || strings.TrimSpace(e.Sender) == "" {
		return Decision{}, fmt.Errorf("gate: message id and sender are required")
	}

	now := g.now()
	row := &domain.ConversationLog{
		MessageID:   e.MessageID,
		SenderPhone: e.Sender,
		Kind:        e.Kind,
		Content:     e.Content,
		Payload:     e.Payload,
		ReceivedAt:  now,
	}
	inserted, err := repo.InsertConversationLog(ctx, g.DB, row)
	if err != nil {
		return Decision{}, fmt.Errorf("gate: log message: %w", err)
	}
	if !inserted {
		span.SetAttributes(attribute.Bool("duplicate", true))
		return Decision{Accepted: false}, nil
	}

	since := now.Add(-g.window())
	newSession := true
	if g.Cache != nil {
		if last, ok := g.Cache.Seen(e.Sender); ok && !last.Before(since) {
			newSession = false
		}
	}
	if newSession {
		active, err := repo.HasActivitySince(ctx, g.DB, e.Sender, since, e.MessageID)
		if err != nil {
			return Decision{}, fmt.Errorf("gate: session lookup: %w", err)
		}
		newSession = !active
	}
	if g.Cache != nil {
		g.Cache.Touch(e.Sender, now)
	}

	span.SetAttributes(attribute.Bool("new_session", newSession))
	return Decision{Accepted: true, NewSession: newSession}, nil
}

var welcomeKeywords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "start": {}, "menu": {},
}

// IsWelcomeKeyword reports whether text is one of the greetings that always
// reopen the welcome menu. Matching is case-insensitive on the trimmed text.
func IsWelcomeKeyword(text string) bool {
	_, ok := welcomeKeywords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
