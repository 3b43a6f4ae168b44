package agent

import (
	"context"
	"errors"

	"videoagent/internal/ai"
	"videoagent/internal/logging"
)

// UnknownQueryMessage is returned when no intent keyword matched
const UnknownQueryMessage = "Sorry, I couldn't understand the query. Please ask for a summary, search, or fact-check."

type handlerFunc func(d *Dispatcher, ctx context.Context, r *Request) *Result

var handlers = map[ai.Intent]handlerFunc{
	ai.IntentSummarize: (*Dispatcher).handleSummarize,
	ai.IntentSearch:    (*Dispatcher).handleSearch,
	ai.IntentFactCheck: (*Dispatcher).handleFactCheck,
	ai.IntentUnknown:   (*Dispatcher).handleUnknown,
}

func (d *Dispatcher) handleSummarize(ctx context.Context, r *Request) *Result {
	prompt := ai.BuildSummaryPrompt(r.Transcript, r.Query)

	text, err := d.completer.Complete(ctx, prompt, d.cfg.Model)
	if err != nil {
		status := 0
		var apiErr *ai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		d.metrics.RecordCompletion(d.cfg.Provider, status)
		d.logger.WithContext(ctx).Warn("Summarization failed", logging.Err(err))
		return &Result{Text: ai.Render(err), Err: err}
	}

	d.metrics.RecordCompletion(d.cfg.Provider, 200)
	return &Result{Text: text}
}

// The query is appended verbatim, without URL encoding.
func (d *Dispatcher) searchLink(query string) string {
	return d.cfg.SearchURL + "?q=" + query
}

func (d *Dispatcher) handleSearch(_ context.Context, r *Request) *Result {
	link := d.searchLink(r.Query)
	return &Result{
		Text: "Web search results: [Click here](" + link + ")",
		Link: link,
	}
}

func (d *Dispatcher) handleFactCheck(_ context.Context, r *Request) *Result {
	link := d.searchLink(r.Query)
	return &Result{
		Text: "Fact-checking: [Search for verification](" + link + ")",
		Link: link,
	}
}

func (d *Dispatcher) handleUnknown(context.Context, *Request) *Result {
	return &Result{Text: UnknownQueryMessage}
}
