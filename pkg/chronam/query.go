package chronam

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/owenleonard11/chronam-utils/pkg/errors"
)

// States lists the U.S. states and territories accepted by the advanced
// search API.
var States = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "District of Columbia", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota",
	"Mississippi", "Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire",
	"New Jersey", "New Mexico", "New York", "North Carolina", "North Dakota",
	"Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Piedmont", "Puerto Rico",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas",
	"Utah", "Vermont", "Virgin Islands", "Virginia", "Washington",
	"West Virginia", "Wisconsin", "Wyoming",
}

// Languages lists the ISO 639-2 codes indexed by the archive
var Languages = []string{
	"ara", "hrv", "cze", "dak", "dan", "eng", "fin", "fre", "ger", "ice",
	"ita", "lit", "nob", "pol", "rum", "slo", "slv", "spa", "swe",
}

// Sort orders accepted by the search API
const (
	SortRelevance = "relevance"
	SortState     = "state"
	SortTitle     = "title"
	SortDate      = "date"
)

// Date filter modes: DateFilterYear compares years only, DateFilterRange
// compares full dates.
const (
	DateFilterYear  = "yearRange"
	DateFilterRange = "range"
)

// Query holds the validated parameters of one advanced search. A Query is
// immutable once constructed and uniquely identifies the search when several
// run concurrently; always build one through NewQuery.
type Query struct {
	// OrText, AndText and ProxText are lists of single-word search terms:
	// any-of, all-of, and all-within-ProxDistance-words respectively.
	OrText   []string
	AndText  []string
	ProxText []string
	// PhraseText is a multi-word exact-match term
	PhraseText string
	// ProxDistance is the maximum word distance between ProxText members
	ProxDistance int

	// State filters by publication state; see States for accepted values
	State string
	// LCCN filters by Library of Congress Control Number
	LCCN string
	// DateFilterType is DateFilterYear or DateFilterRange
	DateFilterType string
	Date1          time.Time
	Date2          time.Time
	// Sequence restricts the search to one page of each issue, 1 for the
	// frontpage; 0 searches all pages
	Sequence int
	// Language filters by language code; see Languages
	Language string
	// Sort determines result ordering
	Sort string

	// MaxResults caps the number of records retrieved; 0 retrieves all
	MaxResults int
	// Desc is a human-readable label used to key results when several
	// queries run together; defaults to the encoded parameter string
	Desc string
}

// NewQuery validates and normalizes q, returning a configuration error if
// any parameter is malformed. The returned Query is a normalized copy; the
// argument is not modified.
func NewQuery(q Query) (*Query, error) {
	for attr, terms := range map[string][]string{
		"ortext":   q.OrText,
		"andtext":  q.AndText,
		"proxtext": q.ProxText,
	} {
		for _, term := range terms {
			if strings.Contains(term, " ") {
				return nil, errs.NewConfigurationError("query attribute %q: spaces not allowed in search term lists", attr)
			}
		}
	}

	if q.ProxDistance < 0 {
		return nil, errs.NewConfigurationError("query attribute \"proxdistance\": distance must be nonnegative")
	}

	if q.State != "" {
		fixed, ok := normalizeState(q.State)
		if !ok {
			return nil, errs.NewConfigurationError("query attribute \"state\": %q not recognized", q.State)
		}
		q.State = fixed
	}

	// Not a full LCCN validator: strips hyphens and the "sn" prefix, then
	// requires digits only
	if q.LCCN != "" {
		fixed := strings.ReplaceAll(q.LCCN, "-", "")
		fixed = strings.TrimPrefix(fixed, "sn")
		for _, c := range fixed {
			if c < '0' || c > '9' {
				return nil, errs.NewConfigurationError("query attribute \"lccn\": control numbers must contain only numeric characters")
			}
		}
		q.LCCN = fixed
	}

	switch q.DateFilterType {
	case "":
		q.DateFilterType = DateFilterYear
	case DateFilterYear, DateFilterRange:
	default:
		return nil, errs.NewConfigurationError("query attribute \"dateFilterType\": must be %q or %q", DateFilterYear, DateFilterRange)
	}

	if q.Date1.IsZero() {
		q.Date1 = time.Date(1756, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if q.Date2.IsZero() {
		q.Date2 = time.Date(1963, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if q.Date1.After(q.Date2) {
		return nil, errs.NewConfigurationError("query start date %s is after end date %s", q.Date1.Format("2006-01-02"), q.Date2.Format("2006-01-02"))
	}

	if q.Sequence < 0 {
		return nil, errs.NewConfigurationError("query attribute \"sequence\": sequence must be nonnegative")
	}

	if q.Language != "" {
		fixed := strings.ToLower(q.Language)
		if !contains(Languages, fixed) {
			return nil, errs.NewConfigurationError("query attribute \"language\": %q not recognized", q.Language)
		}
		q.Language = fixed
	}

	switch q.Sort {
	case "":
		q.Sort = SortRelevance
	case SortRelevance, SortState, SortTitle, SortDate:
	default:
		return nil, errs.NewConfigurationError("query attribute \"sort\": must be one of relevance, state, title, date")
	}

	if q.MaxResults < 0 {
		return nil, errs.NewConfigurationError("query attribute \"max_results\": must be nonnegative")
	}

	if q.Desc == "" {
		q.Desc = q.encodeParams().Encode()
	}

	return &q, nil
}

// String returns a readable summary of the query parameters
func (q *Query) String() string {
	return fmt.Sprintf("Query(%s)", q.Desc)
}

func normalizeState(state string) (string, bool) {
	if contains(States, state) {
		return state, true
	}
	fixed := strings.ToUpper(state[:1]) + strings.ToLower(state[1:])
	if contains(States, fixed) {
		return fixed, true
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
