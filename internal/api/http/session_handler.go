package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mentorlink-backend/internal/aggregator"
	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/realtime"
)

// SessionHandler owns the per-user runtime of the aggregation core. A client
// opens the stream endpoint once per session; the handler builds the user's
// aggregator and modal controller, registers the aggregator with the
// reconciliation-poll registry, and streams aggregate and modal events over
// SSE until the client disconnects. The modal endpoints act on the caller's
// live session.
type SessionHandler struct {
	cfg      aggregator.Config
	settle   time.Duration
	source   realtime.EventSource
	rec      *aggregator.Reconciler
	registry *aggregator.Registry

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	agg        *aggregator.Aggregator
	controller *aggregator.ModalController
	opener     *aggregator.OpenerBus
}

func NewSessionHandler(
	cfg aggregator.Config,
	settle time.Duration,
	source realtime.EventSource,
	rec *aggregator.Reconciler,
	registry *aggregator.Registry,
) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		settle:   settle,
		source:   source,
		rec:      rec,
		registry: registry,
		sessions: map[string]*session{},
	}
}

func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	agg := aggregator.New(h.cfg, h.source, h.rec, aggregator.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	})
	stream := &eventStream{w: w, flusher: flusher}
	controller := aggregator.NewModalController(stream, stream, h.settle, agg.ReconcileNow)
	agg.OnChange(func(state domain.AggregateInvitationState) {
		stream.send("state", state)
		controller.HandleState(state)
	})

	opener := aggregator.NewOpenerBus()
	unregister := opener.Register(controller.RequestOpen)
	defer unregister()

	sess := &session{agg: agg, controller: controller, opener: opener}
	h.put(claims.UserID, sess)
	defer h.drop(claims.UserID, sess)
	defer controller.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := agg.Start(r.Context()); err != nil {
		logger.Error("failed to start aggregator", "userID", claims.UserID, "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	h.registry.Add(claims.UserID, agg)

	logger.Info("session stream opened", "userID", claims.UserID)
	<-r.Context().Done()
	logger.Info("session stream closed", "userID", claims.UserID)
}

// ModalResolved is called when the user accepted or rejected the invitation
// showing in the modal; the controller closes it and re-checks after the
// settle window.
func (h *SessionHandler) ModalResolved(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.callerSession(r)
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	sess.controller.OnResolved()
	w.WriteHeader(http.StatusNoContent)
}

// ModalOpen requests invitation-modal presentation through the session's
// opener bus; nothing opens unless a reconciliation finds pending invitations.
func (h *SessionHandler) ModalOpen(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.callerSession(r)
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	sess.opener.Trigger()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) callerSession(r *http.Request) (*session, bool) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[claims.UserID]
	return sess, ok
}

func (h *SessionHandler) put(userID string, sess *session) {
	h.mu.Lock()
	h.sessions[userID] = sess
	h.mu.Unlock()
}

// drop removes the session only if it is still the user's current one; a
// reconnect may already have replaced it (and the registry stopped the old
// aggregator on Add).
func (h *SessionHandler) drop(userID string, sess *session) {
	h.mu.Lock()
	current := h.sessions[userID] == sess
	if current {
		delete(h.sessions, userID)
	}
	h.mu.Unlock()
	if current {
		h.registry.Remove(userID)
	}
}

// eventStream renders aggregate changes, modal transitions and the promo
// check as SSE events. It is the session's Presenter and PromoChecker: the
// server decides when the modal opens and closes, the client renders.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *eventStream) send(event string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
	s.mu.Unlock()
}

func (s *eventStream) Open(state domain.AggregateInvitationState) {
	s.send("modal", map[string]any{"action": "open", "state": state})
}

func (s *eventStream) Close() {
	s.send("modal", map[string]any{"action": "close"})
}

// CheckOnce asks the client to run its promotional check. The controller
// guarantees this fires at most once per session and never while an
// invitation is pending.
func (s *eventStream) CheckOnce() {
	s.send("promo", map[string]any{"action": "check"})
}
