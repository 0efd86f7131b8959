package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/fund-portal/internal/api"
	"github.com/bobmcallan/fund-portal/internal/client"
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/config"
	"github.com/bobmcallan/fund-portal/internal/handlers"
	"github.com/bobmcallan/fund-portal/internal/interfaces"
	"github.com/bobmcallan/fund-portal/internal/mcp"
	"github.com/bobmcallan/fund-portal/internal/session"
	"github.com/bobmcallan/fund-portal/internal/storage"
	"github.com/bobmcallan/fund-portal/internal/theme"
	"github.com/bobmcallan/fund-portal/internal/view"
)

// PageTitle is shown in the browser tab and the page header.
const PageTitle = "Mutual Fund Search"

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage  interfaces.StorageManager
	Theme    *theme.Preference
	Client   *client.FundClient
	Renderer *view.Renderer
	Sessions *session.Manager

	// HTTP handlers
	PageHandler    *handlers.PageHandler
	EventsHandler  *handlers.EventsHandler
	ThemeHandler   *handlers.ThemeHandler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	APIHandler     http.Handler
	MCPHandler     *mcp.Handler

	cancel context.CancelFunc
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("running in dev mode, templates are re-read on every render")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}
	if err := a.initSessions(); err != nil {
		a.Storage.Close()
		return nil, err
	}
	a.initHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.Sessions.Run(ctx)

	logger.Info().
		Str("fund_api", a.Client.BaseURL()).
		Bool("mcp", a.MCPHandler != nil).
		Msg("application initialization complete")

	return a, nil
}

// initStorage opens the preference store and restores the theme.
func (a *App) initStorage() error {
	sm, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = sm
	a.Theme = theme.Load(context.Background(), sm.KeyValueStorage(), a.Logger)
	return nil
}

// initSessions builds the fund client, the renderer and the session manager.
func (a *App) initSessions() error {
	a.Client = client.NewFundClient(a.Config.API.URL, a.Config.API.GetTimeout())

	renderer, err := view.NewRenderer(view.FindPagesDir())
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	a.Renderer = renderer

	a.Sessions = session.NewManager(session.Deps{
		Searcher:    a.Client,
		Getter:      a.Client,
		Theme:       a.Theme,
		Renderer:    renderer,
		Logger:      a.Logger,
		QuietPeriod: a.Config.Search.QuietPeriod(),
		Timeout:     a.Config.API.GetTimeout(),
		Title:       PageTitle,
		Version:     config.GetVersion(),
	}, a.Config.Session.GetIdleTimeout())
	return nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Renderer, a.Sessions, a.Config.IsDevMode())
	a.EventsHandler = handlers.NewEventsHandler(a.Logger, a.Sessions)
	a.ThemeHandler = handlers.NewThemeHandler(a.Logger, a.Theme, a.Sessions.PublishAll)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Sessions.Len)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.APIHandler = api.NewServer(a.Client, a.Logger, config.GetVersion())

	if a.Config.MCP.Enabled {
		a.MCPHandler = mcp.NewHandler(a.Client, a.Logger)
	}

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close stops the session reaper, ends every session and closes storage.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
