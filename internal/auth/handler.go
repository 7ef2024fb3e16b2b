package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/trainlog/internal/middleware"
	"github.com/2beens/trainlog/internal/telemetry/metrics"
	"github.com/2beens/trainlog/internal/telemetry/tracing"
	"github.com/2beens/trainlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	authService    *Service
	socialProvider SocialProvider
	metricsManager *metrics.Manager
}

func NewHandler(
	authService *Service,
	socialProvider SocialProvider,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		authService:    authService,
		socialProvider: socialProvider,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginRateLimitAllowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/auth").Subrouter()
	authSubrouter.HandleFunc("/signup", handler.handleSignUp).Methods("POST", "OPTIONS").Name("signup")
	authSubrouter.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
	authSubrouter.HandleFunc("/login/social", handler.handleSocialLogin).Methods("POST", "OPTIONS").Name("social-login")
	authSubrouter.HandleFunc("/logout", handler.handleLogout).Methods("POST", "OPTIONS").Name("logout")

	// rate limit the auth endpoints to prevent abuse
	authSubrouter.Use(middleware.RateLimit(
		rateLimiter, "auth", loginRateLimitAllowedPerMin, handler.metricsManager,
	))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *Handler) readCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return credentialsRequest{}, fmt.Errorf("unmarshal credentials: %w", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, fmt.Errorf("parse form: %w", err)
	}
	return credentialsRequest{
		Email:    r.Form.Get("email"),
		Password: r.Form.Get("password"),
	}, nil
}

func (handler *Handler) readProviderToken(r *http.Request) (string, error) {
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		var req struct {
			ProviderToken string `json:"providerToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("unmarshal provider token: %w", err)
		}
		return req.ProviderToken, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}
	return r.Form.Get("providerToken"), nil
}

func (handler *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.signup")
	defer span.End()

	creds, err := handler.readCredentials(r)
	if err != nil {
		log.Errorf("signup, read credentials: %s", err)
		http.Error(w, "signup failed", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.SignUp(ctx, creds.Email, creds.Password, time.Now())
	if err != nil {
		handler.writeAuthError(w, "signup", err)
		return
	}

	log.Trace("new signup success")
	pkg.WriteResponse(w, pkg.ContentType.JSON, fmt.Sprintf(`{"token": "%s"}`, token), http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	creds, err := handler.readCredentials(r)
	if err != nil {
		log.Errorf("login, read credentials: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.SignIn(ctx, creds.Email, creds.Password, time.Now())
	if err != nil {
		handler.writeAuthError(w, "login", err)
		return
	}

	log.Trace("new login success")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s"}`, token))
}

func (handler *Handler) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.socialLogin")
	defer span.End()

	providerToken, err := handler.readProviderToken(r)
	if err != nil {
		log.Errorf("social login, read provider token: %s", err)
		http.Error(w, "social login failed", http.StatusBadRequest)
		return
	}
	if providerToken == "" {
		http.Error(w, "error, provider token empty", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.SignInWithProvider(ctx, handler.socialProvider, providerToken, time.Now())
	if err != nil {
		handler.writeAuthError(w, "social login", err)
		return
	}

	log.Trace("new social login success")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s"}`, token))
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	authToken := r.Header.Get("X-TRAINLOG-TOKEN")
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.SignOut(ctx, authToken)
	if err != nil {
		log.Tracef("[failed logout] => %s", err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

// writeAuthError surfaces the auth failure message verbatim, so the
// frontend can show it in the corresponding form's error area.
// A failed attempt never changes the current identity state.
func (handler *Handler) writeAuthError(w http.ResponseWriter, op string, err error) {
	log.Tracef("%s failed: %s", op, err)
	if handler.metricsManager != nil {
		handler.metricsManager.CounterFailedLogins.Inc()
	}

	status := http.StatusBadRequest
	if errors.Is(err, ErrWrongCredentials) {
		status = http.StatusUnauthorized
	}
	http.Error(w, err.Error(), status)
}
