package http

import (
	"context"
	"log/slog"
	"net/http"

	_ "github.com/Flarenzy/vpc-provisioner/docs"
	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthChecker reports whether the record store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type API struct {
	Logger   *slog.Logger
	Health   HealthChecker
	Networks domain.NetworkService
}

func NewAPI(logger *slog.Logger, health HealthChecker, networks domain.NetworkService) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		Logger:   logger,
		Health:   health,
		Networks: networks,
	}
}

func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.HandleFunc("GET /networks", a.handleGetNetworks)
	mux.HandleFunc("POST /networks", a.handleCreateNetwork)
	mux.HandleFunc("DELETE /networks", a.handleDeleteNetworks)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	mux.HandleFunc("/", a.handleFallback)

	return a.recoverMiddleware(a.requestMiddleware(mux))
}
