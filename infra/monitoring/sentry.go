package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/stintplan/config"
	coremon "github.com/kilianp07/stintplan/core/monitoring"
)

// Option adjusts the Sentry client options before the client is built.
type Option func(*sentry.ClientOptions)

// NewSentryMonitor returns a Monitor reporting to the DSN in cfg through a
// dedicated hub, or a NopMonitor when no DSN is configured.
func NewSentryMonitor(cfg config.SentryConfig, opts ...Option) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	co := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
	}
	for _, o := range opts {
		o(&co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("app", "stintplan")
	return &sentryMonitor{hub: sentry.NewHub(client, scope)}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

// CaptureException reports err with tags such as the failing phase and role.
func (m *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		m.hub.CaptureException(err)
	})
}

func (m *sentryMonitor) Recover(v any) {
	m.hub.Recover(v)
	m.hub.Flush(2 * time.Second)
}

func (m *sentryMonitor) Flush(timeout time.Duration) { m.hub.Flush(timeout) }
