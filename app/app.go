package app

import (
	"fmt"

	"github.com/rs/zerolog"

	toxiproxy "github.com/Shopify/toxics/client"
	"github.com/Shopify/toxics/collectors"
	"github.com/Shopify/toxics/controller"
)

// App is used for keep central location of configuration and resources.
type App struct {
	Config  Config
	Logger  zerolog.Logger
	Metrics *collectors.MetricsContainer
}

// NewApp initialize App instance.
func NewApp(config Config) (*App, error) {
	app := &App{Config: config}

	err := start([]unit{
		{"Config", app.Config.Validate},
		{"Logger", app.setLogger},
		{"Metrics", app.setMetrics},
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

// NewClient returns a control-plane client honouring the request timeout.
func (a *App) NewClient(userAgent string) *toxiproxy.Client {
	client := toxiproxy.NewClient(a.Config.Endpoint)
	client.UserAgent = userAgent
	client.SetTimeout(a.Config.RequestTimeout)
	return client
}

// NewController wires a controller for the configured proxy.
func (a *App) NewController(client controller.ControlPlane) *controller.Controller {
	return controller.New(
		controller.Config{
			Proxy:          a.Config.Proxy,
			CleanupTimeout: a.Config.CleanupTimeout,
		},
		client,
		a.Logger,
		a.Metrics.ScenarioMetrics,
	)
}

// unit keeps initialization tasks.
type unit struct {
	name  string
	start func() error
}

// start run initialized step for resource.
func start(units []unit) error {
	for _, unit := range units {
		err := unit.start()
		if err != nil {
			return fmt.Errorf("initialization %s failed: %w", unit.name, err)
		}
	}
	return nil
}
