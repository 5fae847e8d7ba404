package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// FormatError reports a tabular source the loader cannot use at all: a
// missing file, an unreadable table, or required columns absent from the
// header. Individual bad rows are skipped and counted, never fatal.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("schedule format error in %s: %s", e.Path, e.Reason)
}

// LoadStats describes what a load run did.
type LoadStats struct {
	Files      int `json:"files"`
	Loaded     int `json:"loaded"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

var requiredColumns = []string{"Date", "Time", "Artist(s)"}

// Load reads a single schedule file (.csv comma-separated, .txt
// tab-separated) into a Store. The Source column defaults to the file name
// when the file does not carry one.
func Load(path string, log *logger.Logger) (*Store, LoadStats, error) {
	var stats LoadStats
	concerts, err := loadFile(path, &stats, log)
	if err != nil {
		return nil, stats, err
	}
	stats.Files = 1

	concerts = dedupe(concerts, &stats, log)
	stats.Loaded = len(concerts)
	return NewStore(concerts, log), stats, nil
}

// LoadDir merges every CSV file under dir into one Store, stamping each
// record's Source from its file name and removing cross-source duplicates.
func LoadDir(dir string, log *logger.Logger) (*Store, LoadStats, error) {
	var stats LoadStats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, &FormatError{Path: dir, Reason: err.Error()}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".csv", ".txt":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, stats, &FormatError{Path: dir, Reason: "no schedule files found"}
	}
	sort.Strings(paths)

	var all []Concert
	for _, path := range paths {
		concerts, err := loadFile(path, &stats, log)
		if err != nil {
			return nil, stats, err
		}
		stats.Files++
		all = append(all, concerts...)
	}

	all = dedupe(all, &stats, log)
	stats.Loaded = len(all)
	return NewStore(all, log), stats, nil
}

func loadFile(path string, stats *LoadStats, log *logger.Logger) ([]Concert, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if filepath.Ext(path) == ".txt" {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1 // organizer exports have ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "cannot read header: " + err.Error()}
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var concerts []Concert
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			log.Warn("Skipping unreadable row",
				logger.String("file", path),
				logger.Error(err))
			continue
		}

		concert, ok := parseRow(row, cols, source)
		if !ok {
			stats.Skipped++
			log.Warn("Skipping malformed row",
				logger.String("file", path),
				logger.String("row", strings.Join(row, "|")))
			continue
		}
		concerts = append(concerts, concert)
	}
	return concerts, nil
}

// columnMap holds header positions; -1 means the column is absent.
type columnMap struct {
	date, clock, artists, details, venue, hall, source, ticketed int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{date: -1, clock: -1, artists: -1, details: -1, venue: -1, hall: -1, source: -1, ticketed: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Date":
			cols.date = i
		case "Time":
			cols.clock = i
		case "Artist(s)", "Artists", "Artist":
			cols.artists = i
		case "Instruments/Details", "Details":
			cols.details = i
		case "Venue", "Sabha": // older exports call the venue column Sabha
			cols.venue = i
		case "Hall":
			cols.hall = i
		case "Source":
			cols.source = i
		case "Ticketed":
			cols.ticketed = i
		}
	}

	var missing []string
	if cols.date == -1 {
		missing = append(missing, "Date")
	}
	if cols.clock == -1 {
		missing = append(missing, "Time")
	}
	if cols.artists == -1 {
		missing = append(missing, "Artist(s)")
	}
	if cols.venue == -1 {
		missing = append(missing, "Venue")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("required columns missing: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow converts one CSV row. A row without a parsable date, artists or
// venue is malformed; an unparsable time is kept with Start == -1 since the
// record is still useful for text queries.
func parseRow(row []string, cols columnMap, defaultSource string) (Concert, bool) {
	date, err := ParseColumnDate(field(row, cols.date))
	if err != nil {
		return Concert{}, false
	}

	artists := field(row, cols.artists)
	venue := field(row, cols.venue)
	if artists == "" || venue == "" {
		return Concert{}, false
	}

	source := field(row, cols.source)
	if source == "" {
		source = defaultSource
	}

	rawTime := field(row, cols.clock)
	return Concert{
		Date:     date,
		RawTime:  rawTime,
		Start:    ParseClock(rawTime),
		Artists:  artists,
		Details:  field(row, cols.details),
		Venue:    venue,
		Hall:     field(row, cols.hall),
		Source:   source,
		Ticketed: field(row, cols.ticketed),
	}, true
}

// dedupe removes records that appear in more than one organizer export.
// Identity is (date, time, artists); venue spellings vary across exports,
// so the venue only picks the survivor: the record with the most complete
// venue name wins.
func dedupe(concerts []Concert, stats *LoadStats, log *logger.Logger) []Concert {
	type slot struct{ idx int }
	best := make(map[string]slot, len(concerts))
	keep := make([]bool, len(concerts))

	for i, c := range concerts {
		key := c.Date.Format("2006-01-02") + "|" + normalizeLower(c.RawTime) + "|" +
			normalizeName(c.Artists)
		prev, ok := best[key]
		if !ok {
			best[key] = slot{idx: i}
			keep[i] = true
			continue
		}
		stats.Duplicates++
		if len(c.Venue) > len(concerts[prev.idx].Venue) {
			keep[prev.idx] = false
			best[key] = slot{idx: i}
			keep[i] = true
		}
	}

	out := concerts[:0]
	for i, c := range concerts {
		if keep[i] {
			out = append(out, c)
		}
	}
	if stats.Duplicates > 0 {
		log.Info("Removed duplicate schedule entries",
			logger.Int("duplicates", stats.Duplicates),
			logger.Int("remaining", len(out)))
	}
	return out
}
