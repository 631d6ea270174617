package reportshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/reports"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
)

type Handler struct {
	Reports  *reports.Service
	Resolver middleware.PermissionResolver
	Gate     middleware.GateRecorder
}

func NewHandler(service *reports.Service, resolver middleware.PermissionResolver, gate middleware.GateRecorder) *Handler {
	return &Handler{Reports: service, Resolver: resolver, Gate: gate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/me/permissions/report", h.handleOwnReport)
		r.With(middleware.RequireFeature(access.PermissionsEditorFeature(), h.Resolver, h.Gate)).
			Get("/users/{userID}/permissions/report", h.handleUserReport)
	})
}

func (h *Handler) handleOwnReport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.writeReport(w, r, user.UserID)
}

func (h *Handler) handleUserReport(w http.ResponseWriter, r *http.Request) {
	h.writeReport(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, userID string) {
	reqID := middleware.GetRequestID(r.Context())
	pdf, err := h.Reports.PermissionReport(r.Context(), userID)
	if errors.Is(err, access.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", reqID)
		return
	}
	if err != nil {
		slog.Error("permission report failed", "userId", userID, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", reqID)
		return
	}
	api.Bytes(w, "application/pdf", "permissions-"+userID+".pdf", pdf)
}
