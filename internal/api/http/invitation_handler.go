package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"mentorlink-backend/internal/aggregator"
	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/service"
)

// InvitationHandler exposes both invitation kinds over JSON. The kind in
// the path selects which service instance handles the request; both run the
// same state machine.
type InvitationHandler struct {
	relSvc      service.InvitationService
	colSvc      service.InvitationService
	reconciler  *aggregator.Reconciler
	strictDedup bool
}

func NewInvitationHandler(relSvc, colSvc service.InvitationService, reconciler *aggregator.Reconciler, strictDedup bool) *InvitationHandler {
	return &InvitationHandler{relSvc: relSvc, colSvc: colSvc, reconciler: reconciler, strictDedup: strictDedup}
}

func (h *InvitationHandler) serviceFor(kind string) (service.InvitationService, bool) {
	switch domain.InvitationKind(kind) {
	case domain.InvitationKindRelationship:
		return h.relSvc, true
	case domain.InvitationKindCollection:
		return h.colSvc, true
	default:
		return nil, false
	}
}

type createInvitationRequest struct {
	Subject          string            `json:"subject"`
	InviteeUserID    string            `json:"invitee_user_id,omitempty"`
	RelationshipType string            `json:"relationship_type,omitempty"`
	CollectionID     string            `json:"collection_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	inv, err := svc.Create(r.Context(), service.CreateInvitationRequest{
		InviterID:        claims.UserID,
		SubjectEmailOrID: req.Subject,
		InviteeUserID:    req.InviteeUserID,
		RelationshipType: domain.RelationshipType(req.RelationshipType),
		CollectionID:     req.CollectionID,
		Metadata:         req.Metadata,
	})
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = claims.UserID
	}
	invs, err := svc.ListPending(r.Context(), subject)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": invs})
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	result, err := svc.Accept(r.Context(), mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationship_created": result.RelationshipCreated})
}

func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	if err := svc.Reject(r.Context(), mux.Vars(r)["id"], claims.UserID); err != nil {
		writeInvitationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	if err := svc.Cancel(r.Context(), mux.Vars(r)["id"], claims.UserID); err != nil {
		writeInvitationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFor(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown invitation kind", http.StatusNotFound)
		return
	}

	if err := svc.Resend(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeInvitationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PendingCount serves the on-demand aggregate for a client that wants the
// authoritative count without waiting for its realtime signal.
func (h *InvitationHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := CallerClaims(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	// the configured dedup policy applies unless the caller overrides it
	strict := h.strictDedup
	if v := r.URL.Query().Get("strict"); v != "" {
		strict = v == "true"
	}
	state, err := h.reconciler.Reconcile(r.Context(), aggregator.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, strict)
	if err != nil {
		http.Error(w, "failed to reconcile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeInvitationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "invitation not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyResolved):
		http.Error(w, "invitation already resolved", http.StatusConflict)
	case errors.Is(err, domain.ErrDuplicateActive):
		http.Error(w, "an active invitation already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrAuthorizationDenied):
		http.Error(w, "not permitted", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
