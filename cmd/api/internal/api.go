package internal

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fazecat/tokensentry/Internal/handlers"
	"github.com/fazecat/tokensentry/Internal/handlers/settings"
	newsscraping "github.com/fazecat/tokensentry/Internal/news_scraping"
	"github.com/fazecat/tokensentry/Internal/utils/analyzer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type API struct {
	Analyzer     handlers.TokenAnalyzer
	News         *newsscraping.Service
	Settings     *settings.Handler
	JWTManager   *JWTManager
	AdminKey     string
	TokenHours   int
	RequireToken bool
	// Health reports optional dependencies; nil means healthy.
	Health func() map[string]string
}

// NewRouter mounts every route. Settings always need a bearer token; analyze
// and headlines need one only when RequireToken is set.
func NewRouter(api *API, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(Cors(api.needsAuth))

	r.Get("/health", api.HandleHealth)
	r.Post("/api/token", api.HandleGenerateToken)

	r.Group(func(r chi.Router) {
		if api.RequireToken {
			r.Use(JWTAuthMiddleware(api.JWTManager))
		}
		r.Get("/api/analyze", api.HandleAnalyze)
		r.Get("/api/analyze/{address}", api.HandleAnalyze)
		r.Get("/api/headlines", api.HandleGetHeadlines)
	})

	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(api.JWTManager))
		r.Get("/api/settings", api.Settings.HandleGetSettings)
		r.Post("/api/settings", logSettingsUpdate(api.Settings.HandleUpdateSettings))
	})

	return r
}

// needsAuth reports whether a path sits behind JWTAuthMiddleware.
func (api *API) needsAuth(path string) bool {
	if strings.HasPrefix(path, "/api/settings") {
		return true
	}
	return api.RequireToken && (strings.HasPrefix(path, "/api/analyze") || strings.HasPrefix(path, "/api/headlines"))
}

func logSettingsUpdate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := "unknown"
		if c, ok := ClaimsFromContext(r.Context()); ok && c.UserID != "" {
			user = c.UserID
		}
		log.Printf("🔐 [settings] update requested by %s", user)
		next(w, r)
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{"status": "healthy"}
	if api.Health != nil {
		response["components"] = api.Health()
	}
	WriteJSON(w, http.StatusOK, response)
}

// HandleAnalyze accepts the address as a path parameter or ?address=.
func (api *API) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		address = r.URL.Query().Get("address")
	}

	report, err := api.Analyzer.Analyze(r.Context(), address)
	if errors.Is(err, analyzer.ErrInvalidAddress) {
		WriteError(w, http.StatusBadRequest, "Invalid contract address: expected 0x followed by 40 hex characters")
		return
	}
	if err != nil {
		log.Printf("Error analyzing %s: %v", address, err)
		WriteError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
