package schedule

import (
	"regexp"
	"strings"
)

var (
	separatorRe  = regexp.MustCompile(`[-&]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func normalizeLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeName flattens the separators artist listings use ("Ranjani-Gayatri",
// "X & Y") so differently punctuated spellings of the same billing compare
// equal.
func normalizeName(s string) string {
	s = separatorRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return normalizeLower(s)
}

// spelling variations that show up across organizer exports
var wordVariations = map[string][]string{
	"gayatri":  {"gayatri", "gayathri"},
	"gayathri": {"gayatri", "gayathri"},
}

// canonicalWord folds known spelling variations onto one form.
func canonicalWord(w string) string {
	if vars, ok := wordVariations[w]; ok {
		return vars[0]
	}
	return w
}

// nameWords splits a normalized name into the words worth matching on
// (initials and connectives shorter than three characters are dropped).
func nameWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(normalizeName(s)) {
		if len(w) > 2 {
			words = append(words, canonicalWord(w))
		}
	}
	return words
}

// splitArtists breaks an Artist(s) column value into individual names on the
// first separator kind it finds.
func splitArtists(s string) []string {
	for _, sep := range []string{";", ",", "&", " and "} {
		if strings.Contains(s, sep) {
			var names []string
			for _, part := range strings.Split(s, sep) {
				if p := strings.TrimSpace(part); p != "" {
					names = append(names, p)
				}
			}
			return names
		}
	}
	if p := strings.TrimSpace(s); p != "" {
		return []string{p}
	}
	return nil
}
