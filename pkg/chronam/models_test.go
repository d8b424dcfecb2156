package chronam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/owenleonard11/chronam-utils/pkg/errors"
)

func TestRecordUnmarshal(t *testing.T) {
	raw := `{
		"id": "/lccn/sn86069873/1900-01-05/ed-1/seq-3/",
		"title": "Omaha daily bee.",
		"date": "19000105",
		"sequence": 3
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, "sn86069873/1900-01-05/ed-1/seq-3/", rec.ID)
	assert.Equal(t, "Omaha daily bee.", rec.Fields["title"])
	assert.NotContains(t, rec.Fields, "id")
}

func TestRecordUnmarshalMissingID(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"title": "no id here"}`), &rec)
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestRecordMarshalRestoresPrefix(t *testing.T) {
	rec := Record{
		ID:     "sn86069873/1900-01-05/ed-1/seq-3/",
		Fields: map[string]interface{}{"title": "Omaha daily bee."},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "/lccn/sn86069873/1900-01-05/ed-1/seq-3/", fields["id"])
	assert.Equal(t, "Omaha daily bee.", fields["title"])
}

func TestSearchResultDecode(t *testing.T) {
	raw := `{
		"totalItems": 128,
		"startIndex": 1,
		"endIndex": 2,
		"items": [
			{"id": "/lccn/sn86069873/1900-01-05/ed-1/seq-3/", "title": "a"},
			{"id": "/lccn/sn83045462/1912-06-01/ed-1/seq-1/", "title": "b"}
		]
	}`

	var result SearchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	assert.Equal(t, 128, result.TotalItems)
	assert.Equal(t, 1, result.StartIndex)
	assert.Equal(t, 2, result.EndIndex)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "sn86069873/1900-01-05/ed-1/seq-3/", result.Items[0].ID)
	assert.Equal(t, "sn83045462/1912-06-01/ed-1/seq-1/", result.Items[1].ID)
}
