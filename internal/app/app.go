package app

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/common"
	"github.com/ternarybob/itinera/internal/handlers"
	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/markdown"
	"github.com/ternarybob/itinera/internal/planning"
	"github.com/ternarybob/itinera/internal/runtime"
)

// App holds the wired application components. The WebSocket handler doubles
// as every view surface, so the engine is built over it and then attached
// back as the handler's action target.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Renderer   interfaces.MarkdownRenderer
	Client     interfaces.PlanningClient
	Engine     *runtime.Engine
	WSHandler  *handlers.WebSocketHandler
	APIHandler *handlers.APIHandler
}

// New creates and wires the application.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.Renderer = markdown.NewRenderer(logger)
	a.Client = planning.NewClient(planning.ClientConfig{
		BaseURL:        cfg.Backend.BaseURL,
		RequestTimeout: cfg.Backend.GetRequestTimeout(),
		NearbyInterval: cfg.Nearby.GetMinInterval(),
	}, logger)

	a.WSHandler = handlers.NewWebSocketHandler(logger)

	a.Engine = runtime.New(runtime.Options{
		Client:      a.Client,
		Renderer:    a.Renderer,
		ChatView:    a.WSHandler,
		PlannerView: a.WSHandler,
		BrowserView: a.WSHandler,
		MapView:     a.WSHandler,
		Logger:      logger,
	})
	a.WSHandler.SetActions(a.Engine)
	a.Engine.Start()

	a.APIHandler = handlers.NewAPIHandler(a.Engine)

	logger.Info().
		Str("backend", cfg.Backend.BaseURL).
		Msg("Application wired")

	return a, nil
}

// Close releases application resources.
func (a *App) Close() error {
	a.Logger.Info().Msg("Application closed")
	return nil
}
