package http

import (
	"net/http"
	"time"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/firebase"
	"github.com/Mica1614/seims-ai-scanner/internal/handlers"
	"github.com/Mica1614/seims-ai-scanner/internal/log"
	"github.com/Mica1614/seims-ai-scanner/internal/middleware"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Cfg        config.Config
	Verifier   middleware.TokenVerifier
	DataClient *firestore.Client
	WebConfig  *handlers.WebConfig
	Uploads    *handlers.Uploads
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if d.DataClient == nil {
			Fail(w, 503, "data client is not initialized")
			return
		}
		projectID, database := firebase.Binding(d.DataClient)
		WriteJSON(w, 200, map[string]any{
			"ok":        true,
			"projectId": projectID,
			"database":  database,
		})
	})

	if d.WebConfig != nil {
		r.Get("/v1/firebase/config", d.WebConfig.Get)
	}

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier))

		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			WriteJSON(w, 200, map[string]any{
				"uid":    au.UID,
				"email":  au.Email,
				"claims": au.Claims,
			})
		})

		if d.Uploads != nil {
			pr.Post("/v1/uploads/signed-url", d.Uploads.CreateSignedUploadURL)
			pr.Post("/v1/uploads/signed-urls", d.Uploads.CreateSignedUploadURLs)
		}
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	logger := log.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request handled")
	})
}
