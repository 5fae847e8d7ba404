package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// ErrUnusableResponse marks a model reply that no extraction could be
// decoded from. Interpret classifies parse failures through it before
// degrading to keyword extraction.
var ErrUnusableResponse = errors.New("unusable model response")

// Interpreter turns natural-language queries into schedule filters. It
// never fails: when the model is unreachable or replies with garbage it
// degrades to keyword extraction.
type Interpreter struct {
	client     LLMClient
	seasonYear int
	maxVenues  int
	maxArtists int
	now        func() time.Time
	logger     *logger.Logger
}

// NewInterpreter creates a query interpreter.
func NewInterpreter(client LLMClient, seasonYear, maxVenues, maxArtists int, log *logger.Logger) *Interpreter {
	return &Interpreter{
		client:     client,
		seasonYear: seasonYear,
		maxVenues:  maxVenues,
		maxArtists: maxArtists,
		now:        time.Now,
		logger:     log.Named("intent"),
	}
}

// Interpret extracts a structured query from user text. The returned
// Result always carries a usable filter; Source records which path
// produced it.
func (p *Interpreter) Interpret(ctx context.Context, text string, vocab Vocabulary) Result {
	reply, err := p.client.Complete(ctx, extractionSystemPrompt, p.extractionPrompt(text, vocab))
	if err != nil {
		p.logger.Warn("LLM extraction failed, falling back to keywords",
			logger.Error(err))
		return p.keywordExtract(text)
	}

	ext, err := parseExtraction(reply)
	if err != nil {
		p.logger.Warn("Falling back to keywords",
			logger.Error(err),
			logger.String("reply", truncate(reply, 200)))
		return p.keywordExtract(text)
	}

	result := p.normalize(ext)
	result.Source = "llm"
	return result
}

// parseExtraction decodes the model reply into an extraction. Failures
// wrap ErrUnusableResponse.
func parseExtraction(reply string) (extraction, error) {
	raw, ok := extractJSON(reply)
	if !ok {
		return extraction{}, fmt.Errorf("no JSON object in reply: %w", ErrUnusableResponse)
	}
	var ext extraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return extraction{}, fmt.Errorf("decoding reply: %w", ErrUnusableResponse)
	}
	return ext, nil
}

const extractionSystemPrompt = `You extract structured query parameters from user questions about a Carnatic music concert schedule. Respond with a single JSON object and nothing else.`

func (p *Interpreter) extractionPrompt(text string, vocab Vocabulary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Extract structured query parameters from this user query about concert schedules.\n\n")
	fmt.Fprintf(&b, "User query: %q\n\n", text)

	if !vocab.MinDate.IsZero() && !vocab.MaxDate.IsZero() {
		fmt.Fprintf(&b, "The schedule covers %s to %s.\n",
			vocab.MinDate.Format("2006-01-02"), vocab.MaxDate.Format("2006-01-02"))
	}
	if venues := capList(vocab.Venues, p.maxVenues); len(venues) > 0 {
		fmt.Fprintf(&b, "Known venues include: %s.\n", strings.Join(venues, "; "))
	}
	if artists := capList(vocab.Artists, p.maxArtists); len(artists) > 0 {
		fmt.Fprintf(&b, "Known artists include: %s.\n", strings.Join(artists, "; "))
	}

	b.WriteString(`
Extract the following information if present:
1. date: a specific date (YYYY-MM-DD if the year is clear, otherwise a phrase like "Dec 15" or "tomorrow")
2. date_range: [start, end] if a range is mentioned, null otherwise
3. artist: artist name(s) mentioned
4. venue: venue name mentioned
5. location: area name (e.g. Mylapore, T. Nagar)
6. time_of_day: one of "morning", "afternoon", "evening", "night"
7. ticketed: "yes" if the user wants ticketed concerts, "no" for free entry, null otherwise
8. intent: one of "search", "route_planning", "info", "help"
9. is_followup: true if the query refines previous results (words like "filter", "only", "those", "them")

Respond in JSON only, with keys: date, date_range, artist, venue, location, time_of_day, ticketed, intent, is_followup. Use null for missing fields.

Example response:
{"date": "2025-12-15", "date_range": null, "artist": "T.M. Krishna", "venue": null, "location": null, "time_of_day": "evening", "ticketed": null, "intent": "search", "is_followup": false}`)

	return b.String()
}

// normalize converts the raw extraction into a schedule filter using the
// deterministic date and time parsers, so the model's freehand date
// phrasing cannot leak into the query layer.
func (p *Interpreter) normalize(ext extraction) Result {
	ref := p.now()
	var f schedule.Filter

	if len(ext.DateRange) == 2 {
		if from, ok := schedule.ParseDate(ext.DateRange[0], ref, p.seasonYear); ok {
			if to, ok := schedule.ParseDate(ext.DateRange[1], ref, p.seasonYear); ok && !to.Before(from) {
				f.DateFrom, f.DateTo = from, to
			}
		}
	}
	if f.DateFrom.IsZero() && ext.Date != "" {
		if from, to, ok := schedule.ParseDateRange(ext.Date, ref, p.seasonYear); ok {
			f.DateFrom, f.DateTo = from, to
		} else if d, ok := schedule.ParseDate(ext.Date, ref, p.seasonYear); ok {
			f.DateFrom, f.DateTo = d, d
		}
	}

	f.Artist = strings.TrimSpace(ext.Artist)
	f.Venue = strings.TrimSpace(ext.Venue)
	f.Location = strings.TrimSpace(ext.Location)
	f.TimeOfDay = schedule.ParseTimeOfDay(ext.TimeOfDay)

	switch strings.ToLower(strings.TrimSpace(ext.Ticketed)) {
	case "yes", "true", "ticketed":
		f.Ticketed = "Ticketed"
	case "no", "false", "free":
		f.Ticketed = "Free"
	}

	return Result{
		Filter:   f,
		Kind:     ParseKind(ext.Intent),
		Followup: ext.Followup,
	}
}

var (
	codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	jsonObjRe   = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// extractJSON pulls the first JSON object out of a model reply,
// tolerating markdown code fences and surrounding prose.
func extractJSON(reply string) (string, bool) {
	if m := codeBlockRe.FindStringSubmatch(reply); m != nil {
		return m[1], true
	}
	if m := jsonObjRe.FindString(reply); m != "" {
		return m, true
	}
	return "", false
}

func capList(items []string, max int) []string {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
