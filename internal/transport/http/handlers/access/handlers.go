package accesshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/auth"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
	"hraccess/internal/transport/http/shared"
)

type Handler struct {
	Service *access.Service
	Gate    middleware.GateRecorder
	// Throttle wraps the state-changing editor routes. Nil means unthrottled.
	Throttle func(http.Handler) http.Handler
}

func NewHandler(service *access.Service, gate middleware.GateRecorder) *Handler {
	return &Handler{Service: service, Gate: gate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/catalog", h.handleCatalog)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ResolvePermissions(h.Service))
			r.Get("/me", h.handleMe)
			r.Get("/me/permissions", h.handleMyPermissions)
			r.Get("/me/navigation", h.handleMyNavigation)
			r.Get("/me/dashboard", h.handleMyDashboard)
			r.Get("/features/{feature}/check", h.handleFeatureCheck)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireFeature(access.PermissionsEditorFeature(), h.Service, h.Gate))
			r.Get("/users", h.handleListUsers)
			r.Get("/users/{userID}/permissions", h.handleEditor)
			r.Get("/permission-changes/{changeID}", h.handleGetChange)

			r.Group(func(r chi.Router) {
				if h.Throttle != nil {
					r.Use(h.Throttle)
				}
				r.Post("/users/{userID}/permissions/preview", h.handlePropose)
				r.Post("/permission-changes/{changeID}/confirm", h.handleConfirm)
				r.Delete("/permission-changes/{changeID}", h.handleCancel)
			})
		})
	})
}

type levelView struct {
	Level    access.Level     `json:"level"`
	Label    string           `json:"label"`
	Features []access.Feature `json:"features"`
}

type featureView struct {
	Key   access.Feature `json:"key"`
	Label string         `json:"label"`
}

type catalogView struct {
	Features []featureView    `json:"features"`
	Levels   []levelView      `json:"levels"`
	Menu     []access.NavItem `json:"navigation"`
}

func levelViews() []levelView {
	levels := access.Levels()
	out := make([]levelView, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelView{Level: l, Label: l.Label(), Features: access.LevelFeatures(l)})
	}
	return out
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	features := access.Catalog()
	views := make([]featureView, 0, len(features))
	for _, f := range features {
		views = append(views, featureView{Key: f, Label: f.Label()})
	}
	api.Success(w, catalogView{
		Features: views,
		Levels:   levelViews(),
		Menu:     access.NavigationItems(),
	}, middleware.GetRequestID(r.Context()))
}

type meView struct {
	User        access.User               `json:"user"`
	Permissions access.Permissions        `json:"permissions"`
	Navigation  []access.NavItem          `json:"navigation"`
	Dashboard   []access.DashboardSection `json:"dashboard"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	perms, _ := middleware.GetPermissions(r.Context())
	user, err := h.Service.User(r.Context(), perms.UserID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, meView{
		User:        user,
		Permissions: perms,
		Navigation:  access.Navigation(perms.Effective),
		Dashboard:   access.Dashboard(perms.Effective),
	}, reqID)
}

func (h *Handler) handleMyPermissions(w http.ResponseWriter, r *http.Request) {
	perms, _ := middleware.GetPermissions(r.Context())
	api.Success(w, perms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyNavigation(w http.ResponseWriter, r *http.Request) {
	perms, _ := middleware.GetPermissions(r.Context())
	api.Success(w, access.Navigation(perms.Effective), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyDashboard(w http.ResponseWriter, r *http.Request) {
	perms, _ := middleware.GetPermissions(r.Context())
	api.Success(w, access.Dashboard(perms.Effective), middleware.GetRequestID(r.Context()))
}

type featureCheck struct {
	Feature string `json:"feature"`
	Known   bool   `json:"known"`
	Allowed bool   `json:"allowed"`
}

// handleFeatureCheck answers whether the caller holds a feature. Unknown keys are
// reported as not allowed rather than as an error.
func (h *Handler) handleFeatureCheck(w http.ResponseWriter, r *http.Request) {
	perms, _ := middleware.GetPermissions(r.Context())
	raw := chi.URLParam(r, "feature")
	f, known := access.ParseFeature(raw)
	allowed := known && perms.Has(f)
	if h.Gate != nil && known {
		h.Gate.RecordGate(f.String(), allowed)
	}
	api.Success(w, featureCheck{Feature: raw, Known: known, Allowed: allowed}, middleware.GetRequestID(r.Context()))
}

type userSummary struct {
	access.User
	Effective access.Set `json:"effective"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	page := shared.ParsePage(r, 50, 200)
	window := shared.Window(users, page)
	out := make([]userSummary, 0, len(window))
	for _, u := range window {
		out = append(out, userSummary{User: u, Effective: access.ForUser(u)})
	}
	page.WriteHeaders(w, len(users))
	api.Success(w, out, reqID)
}

type editorView struct {
	User      access.User             `json:"user"`
	Level     access.Level            `json:"level"`
	Overrides []access.Feature        `json:"overrides"`
	Effective access.Set              `json:"effective"`
	Options   []access.OverrideOption `json:"options"`
	Levels    []levelView             `json:"levels"`
}

func (h *Handler) handleEditor(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, draft, err := h.Service.Editor(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, editorView{
		User:      user,
		Level:     draft.Level,
		Overrides: draft.Overrides(),
		Effective: draft.Preview(),
		Options:   draft.Options(),
		Levels:    levelViews(),
	}, reqID)
}

type proposeRequest struct {
	Level     string   `json:"level" validate:"required,level"`
	Overrides []string `json:"overrides" validate:"max=25,dive,feature"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload proposeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	change, err := h.Service.ProposeChange(r.Context(), user.UserID, chi.URLParam(r, "userID"), payload.Level, payload.Overrides)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, change, reqID)
}

func (h *Handler) handleGetChange(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	change, err := h.Service.PendingChange(chi.URLParam(r, "changeID"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if change.ActorID != user.UserID {
		writeError(w, access.ErrChangeForbidden, reqID)
		return
	}
	api.Success(w, change, reqID)
}

type confirmRequest struct {
	Code string `json:"code" validate:"omitempty,numeric,len=6"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	// The body is optional; only actors with MFA need to send a code.
	var payload confirmRequest
	if r.ContentLength > 0 && !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	perms, err := h.Service.ConfirmChangeWithCode(r.Context(), user.UserID, chi.URLParam(r, "changeID"), payload.Code)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, perms, reqID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.CancelChange(user.UserID, chi.URLParam(r, "changeID")); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "cancelled"}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, access.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", reqID)
	case errors.Is(err, access.ErrUnknownLevel):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "level", Reason: "must be a known level"}})
	case errors.Is(err, access.ErrUnknownFeature):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "overrides", Reason: "must contain known feature keys"}})
	case errors.Is(err, access.ErrChangeNotFound):
		api.Fail(w, http.StatusNotFound, "change_not_found", "permission change not found or expired", reqID)
	case errors.Is(err, access.ErrChangeForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "permission change belongs to another administrator", reqID)
	case errors.Is(err, access.ErrSelfElevation):
		api.Fail(w, http.StatusForbidden, "self_elevation", "administrators cannot grant themselves new permissions", reqID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
	default:
		slog.Error("access request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
	}
}
