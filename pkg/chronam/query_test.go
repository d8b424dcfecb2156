package chronam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/owenleonard11/chronam-utils/pkg/errors"
)

func TestNewQueryDefaults(t *testing.T) {
	q, err := NewQuery(Query{AndText: []string{"aviation"}})
	require.NoError(t, err)

	assert.Equal(t, DateFilterYear, q.DateFilterType)
	assert.Equal(t, SortRelevance, q.Sort)
	assert.Equal(t, 1756, q.Date1.Year())
	assert.Equal(t, 1963, q.Date2.Year())
	assert.NotEmpty(t, q.Desc)
}

func TestNewQueryNormalization(t *testing.T) {
	q, err := NewQuery(Query{
		State:    "oHIo",
		LCCN:     "sn83-045462",
		Language: "ENG",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ohio", q.State)
	assert.Equal(t, "83045462", q.LCCN)
	assert.Equal(t, "eng", q.Language)
}

func TestNewQueryValidation(t *testing.T) {
	tests := []struct {
		name  string
		query Query
	}{
		{"spaces in term list", Query{AndText: []string{"two words"}}},
		{"negative prox distance", Query{ProxDistance: -1}},
		{"unknown state", Query{State: "Atlantis"}},
		{"alphabetic lccn", Query{LCCN: "abc123"}},
		{"bad date filter", Query{DateFilterType: "decadeRange"}},
		{"start after end", Query{
			Date1: time.Date(1920, 1, 1, 0, 0, 0, 0, time.UTC),
			Date2: time.Date(1910, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"negative sequence", Query{Sequence: -2}},
		{"unknown language", Query{Language: "tlh"}},
		{"bad sort", Query{Sort: "newest"}},
		{"negative max results", Query{MaxResults: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.query)
			require.Error(t, err)

			var apiErr *errs.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, errs.ErrorTypeConfiguration, apiErr.Type)
		})
	}
}

func TestNewQueryDoesNotMutateArgument(t *testing.T) {
	original := Query{State: "ohio"}
	q, err := NewQuery(original)
	require.NoError(t, err)

	assert.Equal(t, "Ohio", q.State)
	assert.Equal(t, "ohio", original.State)
}

func TestNewQueryDescIsStable(t *testing.T) {
	a, err := NewQuery(Query{AndText: []string{"railroad"}, State: "Kansas"})
	require.NoError(t, err)
	b, err := NewQuery(Query{AndText: []string{"railroad"}, State: "Kansas"})
	require.NoError(t, err)

	assert.Equal(t, a.Desc, b.Desc)

	c, err := NewQuery(Query{AndText: []string{"railroad"}, State: "Texas"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Desc, c.Desc)
}
