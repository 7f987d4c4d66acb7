// Package metrics reports to New Relic when the context carries an
// application, and does nothing otherwise.
package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type contextKey struct{}

// NewRelicContextKey is the context key holding the *newrelic.Application
// metrics are reported to.
var NewRelicContextKey = contextKey{}

// NewContext returns a copy of ctx reporting to app. A nil app leaves ctx
// unchanged, which disables reporting.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}

	return context.WithValue(ctx, NewRelicContextKey, app)
}

func fromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app, ok && app != nil
}

// StartTransaction starts a New Relic transaction named name when ctx carries
// an application, returning a context that TraceMethodCall will attach
// segments to. The returned end function is always safe to call.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	app, ok := fromContext(ctx)
	if !ok {
		return ctx, func() {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
