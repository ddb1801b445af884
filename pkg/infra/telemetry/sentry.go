package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
)

// flushTimeout bounds how long Flush waits for pending events
const flushTimeout = 2 * time.Second

// Config holds telemetry hub settings
type Config struct {
	DSN         string
	Environment string
	SampleRate  float64
	Debug       bool
}

// NewHub creates a hub with its own client. An empty DSN yields a hub whose
// events are dropped, so spans can still be created without sending anything.
func NewHub(cfg Config) (*sentry.Hub, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          types.UserAgent(),
		TracesSampleRate: cfg.SampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create telemetry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.Scope().SetTag("run_id", uuid.NewString())
	return hub, nil
}

// StartTransaction starts the root transaction of a build run on hub. The
// returned context carries the hub and the transaction.
func StartTransaction(ctx context.Context, hub *sentry.Hub, name string) (context.Context, *Span) {
	ctx = sentry.SetHubOnContext(ctx, hub)
	tx := sentry.StartTransaction(ctx, name, sentry.WithOpName("relmap.run"))
	return tx.Context(), NewSpan(tx)
}

// Flush waits for buffered events of hub to be delivered
func Flush(hub *sentry.Hub) bool {
	if hub == nil {
		return true
	}
	return hub.Flush(flushTimeout)
}

// Span adapts *sentry.Span to model.Span. Finish is idempotent.
type Span struct {
	raw  *sentry.Span
	once sync.Once
}

// NewSpan wraps a sentry span
func NewSpan(raw *sentry.Span) *Span {
	return &Span{raw: raw}
}

// StartChild starts a child span with operation as its op and description
func (s *Span) StartChild(operation string) model.Span {
	return NewSpan(s.raw.StartChild(operation, sentry.WithDescription(operation)))
}

// Finish closes the span
func (s *Span) Finish() {
	s.once.Do(s.raw.Finish)
}

// Raw returns the wrapped sentry span
func (s *Span) Raw() *sentry.Span {
	return s.raw
}
