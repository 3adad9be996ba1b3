// Package controller drives scenario faults against a single toxiproxy proxy.
//
// Every operation resolves its scenario in the registry first, so an unknown
// id never reaches the control plane. Toxic scenarios are applied as a
// delete followed by a create, which makes re-applying safe even when a
// toxic of the same name survived an earlier run. The "down" scenario
// toggles the proxy's enabled flag instead.
package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	toxiproxy "github.com/Shopify/toxics/client"
	"github.com/Shopify/toxics/collectors"
	"github.com/Shopify/toxics/pkg/errors"
	"github.com/Shopify/toxics/scenario"
)

// ControlPlane is the subset of the toxiproxy API the controller uses.
// *toxiproxy.Client satisfies it.
type ControlPlane interface {
	Version(ctx context.Context) (string, error)
	Proxies(ctx context.Context) (map[string]*toxiproxy.Proxy, error)
	Toxics(ctx context.Context, proxy string) (toxiproxy.Toxics, error)
	AddToxic(ctx context.Context, proxy string, toxic *toxiproxy.Toxic) (*toxiproxy.Toxic, error)
	RemoveToxic(ctx context.Context, proxy, name string) error
	SetProxyEnabled(ctx context.Context, proxy string, enabled bool) (*toxiproxy.Proxy, error)
}

type Config struct {
	// Proxy is the name of the proxy every scenario targets.
	Proxy string
	// CleanupTimeout bounds the final remove of a temporary session.
	// Zero leaves it bounded only by the abort context.
	CleanupTimeout time.Duration
}

type Controller struct {
	config  Config
	client  ControlPlane
	logger  zerolog.Logger
	metrics *collectors.ScenarioMetricCollectors
}

// New creates a controller. metrics may be nil.
func New(
	config Config,
	client ControlPlane,
	logger zerolog.Logger,
	metrics *collectors.ScenarioMetricCollectors,
) *Controller {
	return &Controller{
		config:  config,
		client:  client,
		logger:  logger.With().Str("proxy", config.Proxy).Logger(),
		metrics: metrics,
	}
}

// Apply injects the fault described by scenario id.
func (c *Controller) Apply(ctx context.Context, id string) error {
	s, err := scenario.Lookup(id)
	if err != nil {
		return err
	}
	return c.apply(ctx, s)
}

// Remove clears the fault described by scenario id. Removing a fault that
// is not present succeeds.
func (c *Controller) Remove(ctx context.Context, id string) error {
	s, err := scenario.Lookup(id)
	if err != nil {
		return err
	}
	return c.remove(ctx, s)
}

// ListProxies returns every proxy on the control plane.
func (c *Controller) ListProxies(ctx context.Context) (map[string]*toxiproxy.Proxy, error) {
	proxies, err := c.client.Proxies(ctx)
	c.observe("list_proxies", err)
	if err != nil {
		return nil, errors.JoinError(err, errors.ErrUpstream)
	}
	return proxies, nil
}

// ListToxics returns the toxics on the configured proxy.
func (c *Controller) ListToxics(ctx context.Context) (toxiproxy.Toxics, error) {
	toxics, err := c.client.Toxics(ctx, c.config.Proxy)
	c.observe("list_toxics", err)
	if err != nil {
		return nil, errors.JoinError(err, errors.ErrUpstream)
	}
	return toxics, nil
}

type Status struct {
	Version string
	Proxy   *toxiproxy.Proxy
}

// Status reports the control plane version and the configured proxy. Proxy
// is nil when the control plane does not know it.
func (c *Controller) Status(ctx context.Context) (*Status, error) {
	version, err := c.client.Version(ctx)
	c.observe("version", err)
	if err != nil {
		return nil, errors.JoinError(err, errors.ErrUpstream)
	}
	proxies, err := c.ListProxies(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Version: version, Proxy: proxies[c.config.Proxy]}, nil
}

func (c *Controller) apply(ctx context.Context, s scenario.Scenario) error {
	logger := c.logger.With().Str("scenario", s.ID).Logger()

	if !s.Kind.IsToxic() {
		if err := c.setEnabled(ctx, false); err != nil {
			return err
		}
		c.setActive(s, true)
		logger.Info().Msg("Disabled proxy")
		return nil
	}

	// A failed delete is not fatal: if the toxic really is still there the
	// create below reports the conflict.
	err := c.client.RemoveToxic(ctx, c.config.Proxy, s.ToxicName)
	c.observe("delete_toxic", err)
	if err != nil {
		if ctx.Err() != nil {
			return errors.JoinError(err, errors.ErrUpstream)
		}
		logger.Warn().Err(err).Str("toxic", s.ToxicName).Msg("Failed to clear previous toxic")
	}

	toxic, err := c.client.AddToxic(ctx, c.config.Proxy, payload(s))
	c.observe("create_toxic", err)
	if err != nil {
		if toxiproxy.IsConflict(err) {
			return errors.JoinError(err, errors.ErrConflict)
		}
		return errors.JoinError(err, errors.ErrUpstream)
	}
	c.setActive(s, true)

	logger.Info().
		Str("toxic", toxic.Name).
		Str("type", toxic.Type).
		Str("stream", toxic.Stream).
		Msg("Applied toxic")
	return nil
}

func (c *Controller) remove(ctx context.Context, s scenario.Scenario) error {
	logger := c.logger.With().Str("scenario", s.ID).Logger()

	if !s.Kind.IsToxic() {
		if err := c.setEnabled(ctx, true); err != nil {
			return err
		}
		c.setActive(s, false)
		logger.Info().Msg("Enabled proxy")
		return nil
	}

	err := c.client.RemoveToxic(ctx, c.config.Proxy, s.ToxicName)
	c.observe("delete_toxic", err)
	if err != nil {
		return errors.JoinError(err, errors.ErrUpstream)
	}
	c.setActive(s, false)

	logger.Info().Str("toxic", s.ToxicName).Msg("Removed toxic")
	return nil
}

func (c *Controller) setEnabled(ctx context.Context, enabled bool) error {
	_, err := c.client.SetProxyEnabled(ctx, c.config.Proxy, enabled)
	c.observe("set_enabled", err)
	if err != nil {
		return errors.JoinError(err, errors.ErrUpstream)
	}
	return nil
}

// payload converts a registry entry into the body the control plane expects.
func payload(s scenario.Scenario) *toxiproxy.Toxic {
	attrs := make(toxiproxy.Attributes, len(s.Attributes))
	for k, v := range s.Attributes {
		attrs[k] = v
	}
	return &toxiproxy.Toxic{
		Name:       s.ToxicName,
		Type:       s.Kind.ToxicType(),
		Stream:     s.Stream.String(),
		Attributes: attrs,
	}
}

func (c *Controller) observe(operation string, err error) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.RequestsTotal.WithLabelValues(operation, result).Inc()
}

func (c *Controller) setActive(s scenario.Scenario, active bool) {
	if c.metrics == nil {
		return
	}
	value := 0.0
	if active {
		value = 1
	}
	c.metrics.Active.WithLabelValues(s.ID).Set(value)
}
