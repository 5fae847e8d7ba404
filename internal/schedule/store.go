package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Store answers structured lookups over an immutable concert set. Indexes
// are built once at construction; Query never mutates anything.
type Store struct {
	concerts []Concert // sorted by (date, start)

	artistTokens map[string]map[int]struct{} // lowercase token -> record set

	venues  []string
	artists []string

	minDate time.Time
	maxDate time.Time

	log *logger.Logger
}

// NewStore builds a Store and its indexes from parsed concerts.
func NewStore(concerts []Concert, log *logger.Logger) *Store {
	s := &Store{
		concerts:     append([]Concert(nil), concerts...),
		artistTokens: make(map[string]map[int]struct{}),
		log:          log.Named("schedule-store"),
	}

	sort.SliceStable(s.concerts, func(i, j int) bool {
		a, b := s.concerts[i], s.concerts[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Start != b.Start {
			// unparsed starts sort last within the day
			if a.Start < 0 {
				return false
			}
			if b.Start < 0 {
				return true
			}
			return a.Start < b.Start
		}
		return a.Artists < b.Artists
	})

	venueSet := make(map[string]struct{})
	artistSet := make(map[string]struct{})

	for i, c := range s.concerts {
		for _, w := range strings.Fields(normalizeName(c.Artists)) {
			w = canonicalWord(w)
			set, ok := s.artistTokens[w]
			if !ok {
				set = make(map[int]struct{})
				s.artistTokens[w] = set
			}
			set[i] = struct{}{}
		}

		venueSet[c.Venue] = struct{}{}
		for _, name := range splitArtists(c.Artists) {
			artistSet[name] = struct{}{}
		}

		if s.minDate.IsZero() || c.Date.Before(s.minDate) {
			s.minDate = c.Date
		}
		if c.Date.After(s.maxDate) {
			s.maxDate = c.Date
		}
	}

	for v := range venueSet {
		s.venues = append(s.venues, v)
	}
	for a := range artistSet {
		s.artists = append(s.artists, a)
	}
	sort.Strings(s.venues)
	sort.Strings(s.artists)

	return s
}

// Len returns the number of loaded concerts.
func (s *Store) Len() int { return len(s.concerts) }

// Venues returns all distinct venue names, sorted.
func (s *Store) Venues() []string { return append([]string(nil), s.venues...) }

// Artists returns all distinct artist names, sorted.
func (s *Store) Artists() []string { return append([]string(nil), s.artists...) }

// DateRange returns the earliest and latest concert dates.
func (s *Store) DateRange() (time.Time, time.Time) { return s.minDate, s.maxDate }

// Get returns the concert at index i in store order.
func (s *Store) Get(i int) (Concert, bool) {
	if i < 0 || i >= len(s.concerts) {
		return Concert{}, false
	}
	return s.concerts[i], true
}

// Query returns every concert matching all set filter fields, in
// (date, start) order. An empty filter matches everything; no match is an
// empty slice, never an error.
func (s *Store) Query(f Filter) []Concert {
	var artistMatch map[int]struct{}
	if f.Artist != "" {
		artistMatch = s.matchArtists(f.Artist)
		if len(artistMatch) == 0 {
			return nil
		}
	}

	lo, hi := s.dateBounds(f)

	var out []Concert
	for i := lo; i < hi; i++ {
		c := s.concerts[i]

		if artistMatch != nil {
			if _, ok := artistMatch[i]; !ok {
				continue
			}
		}
		if f.Venue != "" && !strings.Contains(normalizeLower(c.Venue), normalizeLower(f.Venue)) {
			continue
		}
		if f.Location != "" && !strings.Contains(normalizeLower(c.Venue), normalizeLower(f.Location)) {
			continue
		}
		if f.TimeOfDay != "" && BucketFor(c.Start) != f.TimeOfDay {
			continue
		}
		if f.Ticketed != "" && !strings.EqualFold(c.Ticketed, f.Ticketed) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// dateBounds narrows the scan window using the date-sorted layout.
func (s *Store) dateBounds(f Filter) (int, int) {
	lo, hi := 0, len(s.concerts)
	if !f.DateFrom.IsZero() {
		from := truncateToDay(f.DateFrom)
		lo = sort.Search(len(s.concerts), func(i int) bool {
			return !s.concerts[i].Date.Before(from)
		})
	}
	if !f.DateTo.IsZero() {
		to := truncateToDay(f.DateTo)
		hi = sort.Search(len(s.concerts), func(i int) bool {
			return s.concerts[i].Date.After(to)
		})
	}
	if hi < lo {
		return 0, 0
	}
	return lo, hi
}

// matchArtists resolves an artist query with tiered matching: an exact
// normalized-phrase tier, then a word tier requiring every query word, then
// a plain substring tier. The first tier with any hit wins, which keeps
// "Ranjani Gayatri" from also matching every other Ranjani on the bill.
func (s *Store) matchArtists(query string) map[int]struct{} {
	queryNorm := foldVariations(normalizeName(query))

	// Tier 1: exact phrase containment in either direction.
	exact := make(map[int]struct{})
	for i, c := range s.concerts {
		artistNorm := foldVariations(normalizeName(c.Artists))
		if artistNorm == "" {
			continue
		}
		if strings.Contains(artistNorm, queryNorm) || strings.Contains(queryNorm, artistNorm) {
			exact[i] = struct{}{}
		}
	}
	if len(exact) > 0 {
		return exact
	}

	// Tier 2: every significant query word present as a token.
	words := nameWords(query)
	if len(words) > 1 {
		var acc map[int]struct{}
		for _, w := range words {
			set := s.artistTokens[w]
			if len(set) == 0 {
				acc = nil
				break
			}
			if acc == nil {
				acc = make(map[int]struct{}, len(set))
				for i := range set {
					acc[i] = struct{}{}
				}
				continue
			}
			for i := range acc {
				if _, ok := set[i]; !ok {
					delete(acc, i)
				}
			}
		}
		if len(acc) > 0 {
			return acc
		}
	}

	// Tier 3: raw substring.
	sub := make(map[int]struct{})
	needle := normalizeLower(query)
	for i, c := range s.concerts {
		if strings.Contains(normalizeLower(c.Artists), needle) {
			sub[i] = struct{}{}
		}
	}
	return sub
}

// foldVariations rewrites each word of an already-normalized string onto its
// canonical spelling.
func foldVariations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = canonicalWord(w)
	}
	return strings.Join(words, " ")
}
