package chronam

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageID = "sn86069873/1900-01-05/ed-1/seq-3/"

func TestSearchURL(t *testing.T) {
	q, err := NewQuery(Query{
		AndText: []string{"homestead", "claim"},
		State:   "Nebraska",
	})
	require.NoError(t, err)

	raw := SearchURL(BaseURL, q, 0, 50)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "chroniclingamerica.loc.gov", parsed.Host)
	assert.Equal(t, SearchEndpoint, parsed.Path)

	params := parsed.Query()
	assert.Equal(t, "json", params.Get("format"))
	assert.Equal(t, "advanced", params.Get("searchType"))
	assert.Equal(t, "homestead claim", params.Get("andtext"))
	assert.Equal(t, "Nebraska", params.Get("state"))
	assert.Equal(t, "50", params.Get("rows"))

	// page index is 0-based; the API numbers from 1
	assert.Equal(t, "1", params.Get("page"))

	raw = SearchURL(BaseURL, q, 3, 20)
	parsed, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "4", parsed.Query().Get("page"))
	assert.Equal(t, "20", parsed.Query().Get("rows"))
}

func TestSearchURLDateEncoding(t *testing.T) {
	date1 := time.Date(1890, 3, 1, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(1910, 11, 30, 0, 0, 0, 0, time.UTC)

	q, err := NewQuery(Query{Date1: date1, Date2: date2})
	require.NoError(t, err)
	params, err := url.Parse(SearchURL(BaseURL, q, 0, 50))
	require.NoError(t, err)
	assert.Equal(t, "1890", params.Query().Get("date1"))
	assert.Equal(t, "1910", params.Query().Get("date2"))

	q, err = NewQuery(Query{DateFilterType: DateFilterRange, Date1: date1, Date2: date2})
	require.NoError(t, err)
	params, err = url.Parse(SearchURL(BaseURL, q, 0, 50))
	require.NoError(t, err)
	assert.Equal(t, "03/01/1890", params.Query().Get("date1"))
	assert.Equal(t, "11/30/1910", params.Query().Get("date2"))
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		kind FileKind
		want string
	}{
		{FileText, BaseURL + "/lccn/sn86069873/1900-01-05/ed-1/seq-3/ocr.txt"},
		{FileXML, BaseURL + "/lccn/sn86069873/1900-01-05/ed-1/seq-3/ocr.xml"},
		{FilePDF, BaseURL + "/lccn/sn86069873/1900-01-05/ed-1/seq-3.pdf"},
		{FileImage, BaseURL + "/lccn/sn86069873/1900-01-05/ed-1/seq-3.jp2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := FileURL(BaseURL, pageID, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FileURL(BaseURL, pageID, FileKind("djvu"))
	assert.Error(t, err)
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "sn86069873/1900-01-05/ed-1/seq-3.txt", LocalPath(pageID, FileText))
	assert.Equal(t, "sn86069873/1900-01-05/ed-1/seq-3.jp2", LocalPath(pageID, FileImage))
}

func TestParseFileKind(t *testing.T) {
	kind, err := ParseFileKind("PDF")
	require.NoError(t, err)
	assert.Equal(t, FilePDF, kind)

	_, err = ParseFileKind("tiff")
	assert.Error(t, err)
}
