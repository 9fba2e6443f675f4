package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vahanai/docsbot/internal/analytics"
	"github.com/vahanai/docsbot/internal/chat"
	"github.com/vahanai/docsbot/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Resolver  *chat.Resolver
	Analytics *analytics.Recorder
	Store     *storage.Store
	Token     string
}

// NewHandler returns the chatbot's HTTP surface. The interaction endpoints
// are an admin surface guarded by bearer auth.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(deps))
	r.Post("/api/feedback", handleFeedback(deps))
	r.Get("/api/analytics", handleAnalytics(deps))

	r.Route("/api/interactions", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Get("/", handleListInteractions(deps))
		r.Get("/{id}", handleGetInteraction(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Source    string `json:"source,omitempty"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		message := strings.TrimSpace(req.Message)
		if message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		start := time.Now()
		reply, source := deps.Resolver.Resolve(r.Context(), sessionID, message)
		elapsed := time.Since(start).Seconds()

		deps.Analytics.Log(analytics.LogParams{
			SessionID:      sessionID,
			UserInput:      message,
			BotResponse:    reply,
			ResponseTime:   &elapsed,
			DocumentSource: source,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Response:  reply,
			SessionID: sessionID,
			Source:    source,
		})
	}
}

type feedbackRequest struct {
	SessionID    string `json:"session_id"`
	Message      string `json:"message"`
	Satisfaction *int   `json:"satisfaction"`
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Satisfaction == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "satisfaction is required")
			return
		}
		if *req.Satisfaction < 1 || *req.Satisfaction > 5 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "satisfaction must be between 1 and 5")
			return
		}
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		if ok := deps.Analytics.Log(analytics.LogParams{
			SessionID:    sessionID,
			UserInput:    req.Message,
			Satisfaction: req.Satisfaction,
		}); !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to record feedback")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}
}

func handleAnalytics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := parseIntParam(r, "days", 30, 365)

		summary, err := deps.Analytics.Summarize(days)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to generate analytics: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		interactions, err := deps.Store.ListInteractions(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}

		if interactions == nil {
			interactions = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactions)
	}
}

func handleGetInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid interaction id")
			return
		}

		interaction, err := deps.Store.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interaction)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
