package audithandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/audit"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
	"hraccess/internal/transport/http/shared"
)

type EventLister interface {
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.Filter) (int, error)
}

type Handler struct {
	Events   EventLister
	Resolver middleware.PermissionResolver
	Gate     middleware.GateRecorder
}

func NewHandler(events EventLister, resolver middleware.PermissionResolver, gate middleware.GateRecorder) *Handler {
	return &Handler{Events: events, Resolver: resolver, Gate: gate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := middleware.RequireFeature(access.PermissionsEditorFeature(), h.Resolver, h.Gate)
	r.Route("/audit", func(r chi.Router) {
		r.With(guard).Get("/events", h.handleListEvents)
		r.With(guard).Get("/users/{userID}/events", h.handleUserEvents)
	})
}

func filterFromQuery(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorUser:  q.Get("actorUserId"),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, filterFromQuery(r))
}

// handleUserEvents lists the permission history of one user.
func (h *Handler) handleUserEvents(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	filter.EntityType = access.AuditEntityUser
	filter.EntityID = chi.URLParam(r, "userID")
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter audit.Filter) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePage(r, 100, 500)

	total, err := h.Events.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err, "requestId", reqID)
		total = -1
	}

	events, err := h.Events.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("audit list failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	page.WriteHeaders(w, total)
	api.Success(w, events, reqID)
}
