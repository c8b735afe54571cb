package httpx

import (
	"log/slog"
	"net/http"

	"github.com/sit-hvlab/session-gateway/internal/service"
)

// RouterServices holds the dependencies of the HTTP router.
type RouterServices struct {
	Authority SessionAuthority
	Dest      service.Destinations
	Logger    *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	handlers := &SessionHandlers{
		Authority: services.Authority,
		Dest:      services.Dest,
		Logger:    services.Logger,
	}

	mux.Handle("GET /entry", http.HandlerFunc(handlers.Entry))
	mux.Handle("GET /auth/staff/login", http.HandlerFunc(handlers.StaffLogin))
	mux.Handle("GET /oauth2/callback", http.HandlerFunc(handlers.StaffCallback))
	mux.Handle("POST /auth/logout", http.HandlerFunc(handlers.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(handlers.Status))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
