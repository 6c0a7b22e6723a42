package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans committed stage moves out to SSE subscribers, per organization.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // OrgID -> Set of Channels
	closed      bool
	logger      *slog.Logger
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger used for dropped messages.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe opens a stream for orgID. After Close the returned channel is
// already closed.
func (sm *StreamManager) Subscribe(orgID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if sm.closed {
		close(ch)
		return ch, func() {}
	}
	if _, ok := sm.subscribers[orgID]; !ok {
		sm.subscribers[orgID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[orgID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[orgID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, orgID)
			}
		}
	}
}

// Subscribers reports how many streams are open for orgID.
func (sm *StreamManager) Subscribers(orgID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[orgID])
}

func (sm *StreamManager) Broadcast(orgID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[orgID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "org_id", orgID)
		}
	}
}

// Close ends every open stream so SSE handlers return. Register it with
// http.Server.RegisterOnShutdown: Shutdown does not cancel request contexts.
func (sm *StreamManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.closed {
		return
	}
	sm.closed = true
	for orgID, subs := range sm.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(sm.subscribers, orgID)
	}
}

// Hooks publishes every committed move to the organization's stream.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageMoved: func(_ context.Context, e *domain.MoveEvent) {
			data, err := json.Marshal(e)
			if err != nil {
				return
			}
			sm.Broadcast(e.OrganizationID, string(data))
		},
	}
}

// SubscribeEvents handles the GET /orgs/{orgID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	orgID := chi.URLParam(r, "orgID")
	ch, cancel := s.streams.Subscribe(orgID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: stage-moved\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
