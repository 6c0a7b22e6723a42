// Package http exposes the brokerage services as an organization-scoped JSON API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/dashboard"
	"github.com/aretw0/brokerdesk/pkg/identity"
	"github.com/aretw0/brokerdesk/pkg/organization"
	"github.com/aretw0/brokerdesk/pkg/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ActorHeader names the acting user recorded on timeline events.
const ActorHeader = "X-Actor-Name"

// Config wires the services behind the handler.
// Pipeline and Clients are required; the rest are optional.
type Config struct {
	Pipeline      *pipeline.Service
	Clients       *clients.Service
	Dashboard     *dashboard.Service
	Organizations *organization.Service
	Streams       *StreamManager
	Metrics       http.Handler
	Logger        *slog.Logger
	Version       string
}

// Server holds the handlers.
type Server struct {
	pipeline  *pipeline.Service
	clients   *clients.Service
	dashboard *dashboard.Service
	orgs      *organization.Service
	streams   *StreamManager
	logger    *slog.Logger
	version   string
}

// NewHandler creates a new HTTP handler for the services, with tracing and CORS.
func NewHandler(cfg Config) http.Handler {
	return enableCORS(otelhttp.NewHandler(NewRouter(cfg), "brokerdesk"))
}

// NewRouter builds the bare route table.
func NewRouter(cfg Config) chi.Router {
	s := &Server{
		pipeline:  cfg.Pipeline,
		clients:   cfg.Clients,
		dashboard: cfg.Dashboard,
		orgs:      cfg.Organizations,
		streams:   cfg.Streams,
		logger:    cfg.Logger,
		version:   cfg.Version,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.streams == nil {
		s.streams = NewStreamManager(WithStreamLogger(s.logger))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withActor)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", serveSpec)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if s.orgs != nil {
		s.organizationRoutes(r)
	}

	r.Get("/pipelines", s.ListPipelines)
	r.Get("/pipelines/{pipelineID}/stages", s.ListStages)

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Post("/clients", s.CreateClient)
		r.Get("/clients", s.ListClients)
		r.Post("/clients/bulk-move", s.BulkMove)
		r.Get("/clients/{clientID}", s.GetClient)
		r.Patch("/clients/{clientID}", s.UpdateClient)
		r.Post("/clients/{clientID}/move", s.MoveClient)
		r.Post("/clients/{clientID}/pipeline", s.AssignPipeline)
		r.Post("/clients/{clientID}/archive", s.ArchiveClient)
		r.Post("/clients/{clientID}/unarchive", s.UnarchiveClient)
		r.Post("/clients/{clientID}/notes", s.AddNote)
		r.Get("/board", s.GetBoard)
		r.Get("/statistics", s.GetStatistics)
		r.Get("/dashboard", s.GetDashboard)
		r.Get("/events", s.SubscribeEvents)
		if s.orgs != nil {
			s.orgScopedRoutes(r)
		}
	})

	return r
}

func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := r.Header.Get(ActorHeader); name != "" {
			r = r.WithContext(identity.WithActor(r.Context(), name))
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ActorHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Brokerdesk API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
