package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Responder turns query results into conversational replies.
type Responder struct {
	client  LLMClient
	maxRows int
	logger  *logger.Logger
}

// NewResponder creates a response generator. maxRows caps how many
// concerts are quoted to the model for summarization.
func NewResponder(client LLMClient, maxRows int, log *logger.Logger) *Responder {
	if maxRows <= 0 {
		maxRows = 10
	}
	return &Responder{
		client:  client,
		maxRows: maxRows,
		logger:  log.Named("responder"),
	}
}

const responseSystemPrompt = `You are a friendly assistant for the Margazhi music season in Chennai. Summarize concert search results conversationally. Be concise and accurate; never invent concerts that are not in the list.`

// Summarize produces a natural-language reply for a result set. Falls
// back to a plain canned summary when the model is unavailable.
func (r *Responder) Summarize(ctx context.Context, query string, concerts []schedule.Concert) string {
	prompt := r.responsePrompt(query, concerts)
	reply, err := r.client.Complete(ctx, responseSystemPrompt, prompt)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			r.logger.Warn("Response generation failed, using canned reply",
				logger.Error(err))
		}
		return cannedSummary(concerts)
	}
	return strings.TrimSpace(reply)
}

func (r *Responder) responsePrompt(query string, concerts []schedule.Concert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked: %q\n\n", query)

	if len(concerts) == 0 {
		b.WriteString("No concerts were found matching this query. Explain that nothing matched and suggest refining the search with a different date, artist name, or venue.")
		return b.String()
	}

	fmt.Fprintf(&b, "Found %d concert(s) matching the query. Here are the results:\n\n", len(concerts))
	for i, c := range concerts {
		if i >= r.maxRows {
			fmt.Fprintf(&b, "... and %d more\n", len(concerts)-r.maxRows)
			break
		}
		fmt.Fprintf(&b, "- %s %s: %s at %s\n",
			c.Date.Format("Jan 2"), c.RawTime, c.Artists, c.Venue)
	}
	b.WriteString("\nSummarize the results: mention the count, highlight dates, artists and venues, and offer route planning help if multiple venues are involved.")
	return b.String()
}

func cannedSummary(concerts []schedule.Concert) string {
	if len(concerts) == 0 {
		return "I couldn't find any concerts matching your query. Try searching by a different date, artist, or venue."
	}
	return fmt.Sprintf("I found %d concert(s) matching your query. Please check the results below.", len(concerts))
}
