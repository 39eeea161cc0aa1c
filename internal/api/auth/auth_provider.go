package auth

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// SessionProvider keeps the signed-in identity of every session and tells
// waiting subscribers when a session signs in.
type SessionProvider struct {
	logger   *slog.Logger
	baseURL  string
	sessions *cache.Cache

	mu          sync.Mutex
	nextID      uint64
	subscribers map[string]map[uint64]chan types.Identity
}

func NewSessionProvider(baseURL string, ttl time.Duration, logger *slog.Logger) *SessionProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionProvider{
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		sessions:    cache.New(ttl, ttl/2),
		subscribers: make(map[string]map[uint64]chan types.Identity),
	}
}

func (p *SessionProvider) CurrentIdentity(sessionID string) (types.Identity, bool) {
	if sessionID == "" {
		return types.Identity{}, false
	}
	v, ok := p.sessions.Get(sessionID)
	if !ok {
		return types.Identity{}, false
	}
	identity, ok := v.(types.Identity)
	return identity, ok
}

// SignIn records identity for sessionID and notifies every current
// subscriber of that session exactly once.
func (p *SessionProvider) SignIn(sessionID string, identity types.Identity) {
	if identity.SignedInAt.IsZero() {
		identity.SignedInAt = time.Now().UTC()
	}
	p.sessions.SetDefault(sessionID, identity)

	p.mu.Lock()
	subs := p.subscribers[sessionID]
	delete(p.subscribers, sessionID)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- identity:
		default:
		}
	}
	p.logger.Info("Session signed in",
		slog.String("session_id", sessionID),
		slog.String("email", identity.Email),
		slog.Int("notified", len(subs)))
}

func (p *SessionProvider) SignOut(sessionID string) {
	p.sessions.Delete(sessionID)
	p.logger.Info("Session signed out", slog.String("session_id", sessionID))
}

// Subscribe returns a channel that receives the next sign-in of sessionID.
// cancel is idempotent.
func (p *SessionProvider) Subscribe(sessionID string) (<-chan types.Identity, func()) {
	ch := make(chan types.Identity, 1)

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	if p.subscribers[sessionID] == nil {
		p.subscribers[sessionID] = make(map[uint64]chan types.Identity)
	}
	p.subscribers[sessionID][id] = ch
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			subs := p.subscribers[sessionID]
			delete(subs, id)
			if len(subs) == 0 {
				delete(p.subscribers, sessionID)
			}
		})
	}
	return ch, cancel
}

func (p *SessionProvider) subscriberCount(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers[sessionID])
}

// SignInURL is the browser entry point that signs sessionID in with Google.
func (p *SessionProvider) SignInURL(sessionID string) string {
	return p.baseURL + "/auth/google?session_id=" + url.QueryEscape(sessionID)
}
