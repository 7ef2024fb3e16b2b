package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/trainlog/internal/middleware"
	"github.com/2beens/trainlog/internal/telemetry/tracing"
	"github.com/2beens/trainlog/internal/training"
	"github.com/2beens/trainlog/internal/training/calendar"
	"github.com/2beens/trainlog/internal/training/forms"
	"github.com/2beens/trainlog/internal/training/views"
	"github.com/2beens/trainlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Handler serves the view models: the active view, calendar
// navigation, the dashboard charts, and the dynamic form layout.
type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	appRouter := router.PathPrefix("/app").Subrouter()
	appRouter.HandleFunc("/view", handler.handleSwitchView).Methods("POST")
	appRouter.HandleFunc("/view", handler.handleCurrentView).Methods("GET")
	appRouter.HandleFunc("/calendar/navigate", handler.handleCalendarNavigate).Methods("POST")
	appRouter.HandleFunc("/calendar/mode", handler.handleCalendarMode).Methods("POST")
	appRouter.HandleFunc("/calendar/day", handler.handleOpenDay).Methods("POST")
	appRouter.HandleFunc("/dashboard/charts", handler.handleDashboardCharts).Methods("GET")

	router.HandleFunc("/trainlog/form", handler.handleGetForm).Methods("GET")
}

func (handler *Handler) userState(w http.ResponseWriter, r *http.Request) (*UserState, bool) {
	userID, found := middleware.UserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}

	state, err := handler.manager.Ensure(r.Context(), userID)
	if err != nil {
		log.Errorf("get app state for user %s: %s", userID, err)
		http.Error(w, "failed to load app state", http.StatusInternalServerError)
		return nil, false
	}
	return state, true
}

type switchViewRequest struct {
	View      views.View       `json:"view"`
	SessionID string           `json:"sessionId,omitempty"`
	Date      training.DateKey `json:"date,omitempty"`
}

func (handler *Handler) handleSwitchView(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.app.switchView")
	defer span.End()
	r = r.WithContext(ctx)

	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	var req switchViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	model, err := state.Router.SwitchView(req.View, views.Context{
		SessionID: req.SessionID,
		Date:      req.Date,
	})
	if err != nil {
		if errors.Is(err, training.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("switch view to %s: %s", req.View, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, model)
}

func (handler *Handler) handleCurrentView(w http.ResponseWriter, r *http.Request) {
	state, ok := handler.userState(w, r)
	if !ok {
		return
	}
	writeJSON(w, state.Router.Current())
}

type calendarNavigateRequest struct {
	Direction string `json:"direction"` // "prev" or "next"
}

func (handler *Handler) handleCalendarNavigate(w http.ResponseWriter, r *http.Request) {
	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	var req calendarNavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Direction != "prev" && req.Direction != "next" {
		http.Error(w, "direction must be prev or next", http.StatusBadRequest)
		return
	}

	model, err := state.Router.CalendarNavigate(req.Direction == "next")
	if err != nil {
		log.Errorf("calendar navigate %s: %s", req.Direction, err)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}
	writeJSON(w, model)
}

type calendarModeRequest struct {
	Mode calendar.Mode `json:"mode"`
}

func (handler *Handler) handleCalendarMode(w http.ResponseWriter, r *http.Request) {
	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	var req calendarModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	model, err := state.Router.SetCalendarMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, model)
}

type openDayRequest struct {
	Date training.DateKey `json:"date"`
}

func (handler *Handler) handleOpenDay(w http.ResponseWriter, r *http.Request) {
	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	var req openDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !req.Date.Valid() {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	model, err := state.Router.OpenDay(req.Date)
	if err != nil {
		log.Errorf("open day %s: %s", req.Date, err)
		http.Error(w, "failed to render day", http.StatusInternalServerError)
		return
	}
	writeJSON(w, model)
}

func (handler *Handler) handleDashboardCharts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.app.dashboardCharts")
	defer span.End()
	r = r.WithContext(ctx)

	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	model, err := state.Router.SwitchView(views.ViewDashboard, views.Context{})
	if err != nil {
		log.Errorf("render dashboard charts: %s", err)
		http.Error(w, "failed to render charts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, model)
}

// handleGetForm returns the input layout for a category/sub-category
// pair; with a sessionId it pre-fills the fields from that session.
func (handler *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	state, ok := handler.userState(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	category := training.Category(query.Get("category"))
	subcategory := query.Get("subcategory")

	var details *training.Details
	if sessionID := query.Get("sessionId"); sessionID != "" {
		session, err := state.Adapter.GetSession(sessionID)
		if err != nil {
			if errors.Is(err, training.ErrSessionNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			log.Errorf("get session %s for form: %s", sessionID, err)
			http.Error(w, "failed to build form", http.StatusInternalServerError)
			return
		}
		// selecting a different pair discards the stored details
		if session.Category == category && session.Subcategory == subcategory {
			details = &session.Details
		}
	}

	form, err := forms.Build(category, subcategory, details)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, form)
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal view model: %s", err)
		http.Error(w, "failed to render view", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, body)
}
