package handlers

import (
	"net/http"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/httpjson"
)

// WebConfig serves the Firebase web config so browser clients bootstrap from
// the same record the server was initialized with. These values are public
// in every Firebase web app; service account credentials never appear here.
type WebConfig struct {
	cfg config.FirebaseConfig
}

func NewWebConfig(cfg config.FirebaseConfig) *WebConfig {
	return &WebConfig{cfg: cfg}
}

func (h *WebConfig) Get(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httpjson.Write(w, http.StatusOK, h.cfg)
}
