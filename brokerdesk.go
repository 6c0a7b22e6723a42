package brokerdesk

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/brokerdesk/internal/config"
	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/adapters/dispatch"
	fileAdapter "github.com/aretw0/brokerdesk/pkg/adapters/file"
	httpAdapter "github.com/aretw0/brokerdesk/pkg/adapters/http"
	loamAdapter "github.com/aretw0/brokerdesk/pkg/adapters/loam"
	"github.com/aretw0/brokerdesk/pkg/adapters/mcp"
	"github.com/aretw0/brokerdesk/pkg/adapters/memory"
	"github.com/aretw0/brokerdesk/pkg/adapters/process"
	redisAdapter "github.com/aretw0/brokerdesk/pkg/adapters/redis"
	"github.com/aretw0/brokerdesk/pkg/adapters/sqlite"
	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/dashboard"
	"github.com/aretw0/brokerdesk/pkg/identity"
	"github.com/aretw0/brokerdesk/pkg/locking"
	"github.com/aretw0/brokerdesk/pkg/observability"
	"github.com/aretw0/brokerdesk/pkg/organization"
	"github.com/aretw0/brokerdesk/pkg/persistence/middleware"
	"github.com/aretw0/brokerdesk/pkg/pipeline"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed VERSION
var Version string

// App is the assembled brokerage backend: one store, one pipeline registry
// and the services built on top of them.
type App struct {
	Registry      *stage.Registry
	Store         ports.ClientStore
	Directory     ports.Directory
	Pipeline      *pipeline.Service
	Clients       *clients.Service
	Dashboard     *dashboard.Service
	Organizations *organization.Service
	Streams       *httpAdapter.StreamManager
	Metrics       *observability.Metrics
	Dispatcher    *process.Dispatcher
	Handlers      *dispatch.Registry

	cfg      *config.Config
	logger   *slog.Logger
	store    ports.ClientStore
	dir      ports.Directory
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	handlers map[string]dispatch.HandlerFunc
	closers  []func() error
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithStore injects a ClientStore, bypassing the configured backend.
func WithStore(store ports.ClientStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithDirectory injects the organization, user and invite stores, bypassing
// the configured backend.
func WithDirectory(dir ports.Directory) Option {
	return func(a *App) {
		a.dir = dir
	}
}

// WithActionHandler runs action in process. Commands configured in the
// actions file take precedence.
func WithActionHandler(action string, fn dispatch.HandlerFunc) Option {
	return func(a *App) {
		if a.handlers == nil {
			a.handlers = make(map[string]dispatch.HandlerFunc)
		}
		a.handlers[action] = fn
	}
}

// WithPrometheus registers metrics on reg instead of the default registry.
func WithPrometheus(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
		a.gatherer = reg
	}
}

// New wires the App from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   logging.NewNop(),
		registry: prometheus.DefaultRegisterer,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(a)
	}

	reg, err := LoadRegistry(ctx, cfg.Pipelines)
	if err != nil {
		return nil, err
	}
	a.Registry = reg

	var locker ports.DistributedLocker
	store, dir := a.store, a.dir
	if store == nil || dir == nil {
		backend, backendDir, backendLocker, err := a.openStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if store == nil {
			store, locker = backend, backendLocker
		}
		if dir == nil {
			dir = backendDir
		}
	}
	a.Directory = dir

	if cfg.Encryption.Key != "" {
		enc, err := encryptionMiddleware(cfg.Encryption)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		store = middleware.Chain(store, enc)
	}
	a.Store = store

	actions, err := process.LoadActions(cfg.Actions.Path)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Handlers = dispatch.NewRegistry(dispatch.NewLogDispatcher(a.logger))
	for name, fn := range a.handlers {
		a.Handlers.Register(name, fn)
	}
	a.Dispatcher = process.NewDispatcher(
		process.WithRegistry(actions),
		process.WithFallback(a.Handlers),
	)

	a.Metrics, err = observability.NewMetrics(a.registry)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Streams = httpAdapter.NewStreamManager(httpAdapter.WithStreamLogger(a.logger))
	hooks := observability.Combine(a.Metrics.Hooks(), observability.LogHooks(a.logger), a.Streams.Hooks())

	lockOpts := []locking.Option{locking.WithLogger(a.logger)}
	if locker != nil {
		lockOpts = append(lockOpts, locking.WithLocker(locker))
	}
	locks := locking.New(lockOpts...)
	actor := identity.Default(cfg.Server.Actor)

	a.Pipeline = pipeline.NewService(store, reg,
		pipeline.WithIdentity(actor),
		pipeline.WithDispatcher(a.Dispatcher),
		pipeline.WithLocks(locks),
		pipeline.WithHooks(hooks),
		pipeline.WithLogger(a.logger),
		pipeline.WithDispatchTimeout(cfg.Actions.Timeout),
	)

	a.Clients = clients.NewService(store, reg,
		clients.WithIdentity(actor),
		clients.WithOrganizations(dir),
		clients.WithLocks(locks),
		clients.WithLogger(a.logger),
	)
	a.Dashboard = dashboard.NewService(store, reg)
	a.Organizations = organization.NewService(dir, dir, dir, organization.WithLogger(a.logger))

	a.logger.Info("brokerdesk initialized",
		"storage", cfg.Storage.Type,
		"pipelines", len(reg.List()),
		"actions", len(actions),
		"encrypted", cfg.Encryption.Key != "",
	)
	return a, nil
}

// LoadRegistry builds the pipeline registry: the built-in pipelines plus any
// supplied by the configured source.
func LoadRegistry(ctx context.Context, cfg config.PipelinesConfig) (*stage.Registry, error) {
	reg := stage.NewDefaultRegistry()

	var loader ports.PipelineLoader
	switch cfg.Source {
	case config.PipelinesFile:
		loader = fileAdapter.NewLoader(cfg.Path)
	case config.PipelinesLoam:
		l, err := loamAdapter.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		loader = l
	default:
		return reg, nil
	}

	if _, err := reg.LoadFrom(ctx, loader); err != nil {
		return nil, err
	}
	return reg, nil
}

// openStore opens the configured backend. Clients and the directory share it.
func (a *App) openStore(cfg config.StorageConfig) (ports.ClientStore, ports.Directory, ports.DistributedLocker, error) {
	switch cfg.Type {
	case config.StorageRedis:
		var opts []redisAdapter.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		s := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		a.closers = append(a.closers, s.Close)
		if cfg.Redis.Lock {
			return s, s, redisAdapter.NewLocker(s.Client(), s.Prefix()), nil
		}
		return s, s, nil, nil
	case config.StorageSQLite:
		s, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, s, nil, nil
	case config.StorageFile:
		return fileAdapter.New(cfg.File.Path), fileAdapter.NewDirectory(cfg.File.DirectoryPath), nil, nil
	default:
		return memory.NewStore(), memory.NewDirectory(), nil, nil
	}
}

func encryptionMiddleware(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := base64.StdEncoding.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	fallback := make([][]byte, 0, len(cfg.FallbackKeys))
	for i, k := range cfg.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:      active,
		FallbackKeys:   fallback,
		AllowPlaintext: cfg.AllowPlaintext,
	})
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Handler returns the HTTP API, with /metrics served from the App registry.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(httpAdapter.Config{
		Pipeline:      a.Pipeline,
		Clients:       a.Clients,
		Dashboard:     a.Dashboard,
		Organizations: a.Organizations,
		Streams:       a.Streams,
		Metrics:       promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}),
		Logger:        a.logger,
		Version:       strings.TrimSpace(Version),
	})
}

// MCP returns an MCP server. Reads go through a masked view of the store;
// moves still use the pipeline service.
func (a *App) MCP() (*mcp.Server, error) {
	mask, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	if err != nil {
		return nil, err
	}
	reader := clients.NewService(middleware.Chain(a.Store, mask), a.Registry, clients.WithLogger(a.logger))
	return mcp.NewServer(a.Pipeline, reader,
		mcp.WithVersion(strings.TrimSpace(Version)),
		mcp.WithLogger(a.logger),
	), nil
}

// Close stops action dispatch, waits for in-flight actions and releases the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Pipeline != nil {
		if err := a.Pipeline.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
