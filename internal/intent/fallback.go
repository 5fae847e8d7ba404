package intent

import (
	"regexp"
	"strings"

	"github.com/vshankar/margazhi-planner/internal/schedule"
)

var (
	followupWords = []string{"filter", "only", "just", "those", "these", "the ones", "them"}

	monthDayRe = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}(?:\s*(?:-|to)\s*\d{1,2})?\b`)
	dayMonthRe = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	isoDateRe  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	artistRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bby\s+([A-Z][A-Za-z .&]+?)(?:\s+(?:concert|performing|at|on)\b|[?.!,]|$)`),
		regexp.MustCompile(`(?i)\b(?:when|where)\s+is\s+([A-Z][A-Za-z .&]+?)\s+(?:singing|performing|playing)\b`),
		regexp.MustCompile(`(?i)\b([A-Z][A-Za-z .&]+?)\s+(?:singing|performing)\b`),
		regexp.MustCompile(`(?i)\b([A-Z][A-Za-z .&]+?)\s+concerts?\b`),
	}
	venueRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bat\s+(?:the\s+)?([A-Z][A-Za-z .&]+?)(?:\s+on\b|[?.!,]|$)`),
	}

	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "at": {}, "on": {}, "in": {}, "by": {},
		"when": {}, "where": {}, "what": {}, "is": {}, "are": {},
		"show": {}, "find": {}, "all": {}, "any": {}, "me": {},
	}

	areaNames = []string{"mylapore", "t. nagar", "t nagar", "adyar", "alwarpet", "besant nagar", "nungambakkam"}
)

// keywordExtract is the deterministic interpretation path used when the
// model is unavailable. It recognizes the patterns real queries use most:
// a date phrase, an artist or venue name, an area, a bucket word.
func (p *Interpreter) keywordExtract(text string) Result {
	lower := strings.ToLower(text)
	ref := p.now()

	var f schedule.Filter

	phrase := findDatePhrase(text, lower)
	if phrase != "" {
		if from, to, ok := schedule.ParseDateRange(phrase, ref, p.seasonYear); ok {
			f.DateFrom, f.DateTo = from, to
		} else if d, ok := schedule.ParseDate(phrase, ref, p.seasonYear); ok {
			f.DateFrom, f.DateTo = d, d
		}
	}

	// Date phrases and bucket words would otherwise bleed into the name
	// captures below.
	names := stripWords(text, phrase, "morning", "afternoon", "evening", "night")

	for _, re := range artistRes {
		if m := re.FindStringSubmatch(names); m != nil {
			if name := cleanName(m[1]); name != "" {
				f.Artist = name
				break
			}
		}
	}
	for _, re := range venueRes {
		if m := re.FindStringSubmatch(names); m != nil {
			if name := cleanName(m[1]); name != "" && !strings.EqualFold(name, f.Artist) {
				f.Venue = name
				break
			}
		}
	}
	for _, area := range areaNames {
		if strings.Contains(lower, area) {
			f.Location = area
			break
		}
	}

	switch {
	case strings.Contains(lower, "morning"):
		f.TimeOfDay = schedule.Morning
	case strings.Contains(lower, "afternoon"):
		f.TimeOfDay = schedule.Afternoon
	case strings.Contains(lower, "evening"):
		f.TimeOfDay = schedule.Evening
	case strings.Contains(lower, "night"):
		f.TimeOfDay = schedule.Night
	}

	if strings.Contains(lower, "free") {
		f.Ticketed = "Free"
	} else if strings.Contains(lower, "ticket") {
		f.Ticketed = "Ticketed"
	}

	kind := KindSearch
	switch {
	case containsAny(lower, "route", "plan my", "directions", "travel", "itinerary"):
		kind = KindRoutePlan
	case containsAny(lower, "help", "what can you", "how can you"):
		kind = KindHelp
	case containsAny(lower, "tell me about", "information"):
		kind = KindInfo
	}

	followup := false
	for _, w := range followupWords {
		if strings.Contains(lower, w) {
			followup = true
			break
		}
	}

	return Result{Filter: f, Kind: kind, Followup: followup, Source: "keyword"}
}

// findDatePhrase locates the first date-like phrase in the query,
// relative words included.
func findDatePhrase(text, lower string) string {
	for _, w := range []string{"today", "tomorrow", "yesterday", "next week", "this weekend", "next weekend", "weekend"} {
		if strings.Contains(lower, w) {
			return w
		}
	}
	if m := isoDateRe.FindString(text); m != "" {
		return m
	}
	if m := monthDayRe.FindString(text); m != "" {
		return m
	}
	if m := dayMonthRe.FindString(text); m != "" {
		return m
	}
	if m := relativeDayRe.FindString(lower); m != "" {
		return m
	}
	return ""
}

var relativeDayRe = regexp.MustCompile(`\b(?:in \d+ days?|(?:next|this) (?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)

// stripWords removes the given words and phrases case-insensitively.
func stripWords(text string, words ...string) string {
	for _, w := range words {
		if w == "" {
			continue
		}
		for {
			idx := strings.Index(strings.ToLower(text), strings.ToLower(w))
			if idx < 0 {
				break
			}
			text = text[:idx] + text[idx+len(w):]
		}
	}
	return text
}

// cleanName trims a regex capture down to a plausible proper name.
func cleanName(s string) string {
	s = strings.Trim(s, " .,&")
	words := strings.Fields(s)
	for len(words) > 0 {
		if _, stop := stopWords[strings.ToLower(words[0])]; stop {
			words = words[1:]
			continue
		}
		break
	}
	for len(words) > 0 {
		if _, stop := stopWords[strings.ToLower(words[len(words)-1])]; stop {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	name := strings.Join(words, " ")
	if len(name) <= 2 {
		return ""
	}
	return name
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
