package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2beens/trainlog/internal/middleware"
	"github.com/2beens/trainlog/internal/telemetry/metrics"
	"github.com/2beens/trainlog/internal/telemetry/tracing"
	"github.com/2beens/trainlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type sessionsRepo interface {
	AddSession(ctx context.Context, userID string, session *Session) error
	UpdateSession(ctx context.Context, userID string, session *Session) error
	SaveWellness(ctx context.Context, userID string, entry WellnessEntry) error
}

// detailsParser turns submitted form values into a details record;
// wired to the forms package at construction time.
type detailsParser func(category Category, subcategory string, values url.Values) (Details, error)

// historyView renders the user's history view after a session save;
// the saved session shows up there once the change feed confirms it.
type historyView interface {
	HistoryView(ctx context.Context, userID string) (any, error)
}

type Handler struct {
	repo           sessionsRepo
	parseDetails   detailsParser
	history        historyView
	metricsManager *metrics.Manager
}

func NewHandler(repo sessionsRepo, parseDetails detailsParser, history historyView, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		parseDetails:   parseDetails,
		history:        history,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	trainlogRouter := router.PathPrefix("/trainlog").Subrouter()
	trainlogRouter.HandleFunc("/session", handler.handleSubmitSession).Methods("POST")
	trainlogRouter.HandleFunc("/wellness", handler.handleSubmitWellness).Methods("POST")
	trainlogRouter.HandleFunc("/config", handler.handleGetConfig).Methods("GET")
}

// handleSubmitSession stores a new or edited session from submitted
// form values. The details fields are parsed by the selected
// category/sub-category pair's shape; an id field makes it an update.
func (handler *Handler) handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.submitSession")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("submit session, parse form: %s", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	category := Category(r.PostForm.Get("category"))
	subcategory := r.PostForm.Get("subcategory")
	details, err := handler.parseDetails(category, subcategory, r.PostForm)
	if err != nil {
		log.Errorf("submit session, parse details: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := &Session{
		ID:          r.PostForm.Get("id"),
		Date:        DateKey(r.PostForm.Get("date")),
		Category:    category,
		Subcategory: subcategory,
		Notes:       r.PostForm.Get("notes"),
		Details:     details,
	}
	if rating, err := strconv.Atoi(r.PostForm.Get("rating")); err == nil {
		session.Rating = &rating
	}

	if session.ID == "" {
		err = handler.repo.AddSession(ctx, userID, session)
	} else {
		err = handler.repo.UpdateSession(ctx, userID, session)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("submit session for user %s: %s", userID, err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterSessionsSaved.Inc()
	log.Debugf("session %s saved for user %s [%s/%s]", session.ID, userID, session.Category, session.Subcategory)

	// after a save the client lands on the history view
	view, err := handler.history.HistoryView(ctx, userID)
	if err != nil {
		log.Errorf("render history view after session save: %s", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	response, err := json.Marshal(struct {
		Session *Session `json:"session"`
		View    any      `json:"view"`
	}{
		Session: session,
		View:    view,
	})
	if err != nil {
		log.Errorf("marshal saved session: %s", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, response, http.StatusCreated)
}

// handleSubmitWellness merge-upserts the day's wellness entry; empty
// or malformed numbers are treated as absent, not errors.
func (handler *Handler) handleSubmitWellness(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.submitWellness")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("submit wellness, parse form: %s", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	entry := WellnessEntry{
		Date:     DateKey(r.PostForm.Get("date")),
		Sleep:    parseOptionalNumber(r.PostForm.Get("sleep")),
		Weight:   parseOptionalNumber(r.PostForm.Get("weight")),
		Calories: parseOptionalNumber(r.PostForm.Get("calories")),
	}

	if err := handler.repo.SaveWellness(ctx, userID, entry); err != nil {
		log.Errorf("save wellness for user %s: %s", userID, err)
		http.Error(w, "failed to save wellness entry", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWellnessSaved.Inc()

	response, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("marshal wellness entry: %s", err)
		http.Error(w, "failed to save wellness entry", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, response)
}

// handleGetConfig exposes the category/sub-category mapping the
// frontend populates its dropdowns from.
func (handler *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := DefaultConfig()
	out := make(map[Category][]string)
	for _, category := range cfg.Categories() {
		out[category] = cfg.Subcategories(category)
	}

	response, err := json.Marshal(out)
	if err != nil {
		log.Errorf("marshal training config: %s", err)
		http.Error(w, "failed to get config", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, response)
}

func parseOptionalNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
