package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mentorlink-backend/internal/security"
)

// NewRouter assembles the JSON API.
func NewRouter(
	verifier security.TokenVerifier,
	invHandler *InvitationHandler,
	noteHandler *NotificationHandler,
	sessHandler *SessionHandler,
) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(verifier))

	api.HandleFunc("/invitations/pending-count", invHandler.PendingCount).Methods(http.MethodGet)
	api.HandleFunc("/invitations/{kind}", invHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{kind}/pending", invHandler.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/invitations/{kind}/{id}/accept", invHandler.Accept).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{kind}/{id}/reject", invHandler.Reject).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{kind}/{id}/cancel", invHandler.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{kind}/{id}/resend", invHandler.Resend).Methods(http.MethodPost)

	api.HandleFunc("/notifications", noteHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", noteHandler.MarkAsRead).Methods(http.MethodPost)

	api.HandleFunc("/session/stream", sessHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/session/modal/open", sessHandler.ModalOpen).Methods(http.MethodPost)
	api.HandleFunc("/session/modal/resolved", sessHandler.ModalResolved).Methods(http.MethodPost)

	return r
}
