package agent

import (
	"context"

	"videoagent/internal/ai"
	"videoagent/internal/logging"
)

// Request is one question about one video. Transcript is filled in before
// the Request is handed out and never changes afterwards.
type Request struct {
	MediaPath  string
	Query      string
	Transcript string

	dispatcher *Dispatcher
}

// Result is what a handler produced for a Request.
type Result struct {
	Intent ai.Intent
	Text   string // user-facing text, including rendered completion errors
	Link   string // search URL for the search and fact-check intents
	Err    error  // completion failure behind Text, if any
}

// Process classifies the query and runs the matching handler. It never fails:
// completion errors come back as text in Result.Text with Result.Err set.
func (r *Request) Process(ctx context.Context) *Result {
	d := r.dispatcher
	intent := ai.ClassifyIntent(r.Query)

	d.logger.WithContext(ctx).Info("Dispatching query",
		logging.F("intent", intent.String()),
		logging.F("query_length", len(r.Query)))
	d.metrics.RecordQuery(intent.String())

	handle, ok := handlers[intent]
	if !ok {
		handle = (*Dispatcher).handleUnknown
	}
	result := handle(d, ctx, r)
	result.Intent = intent
	return result
}
