package chronam

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	errs "github.com/owenleonard11/chronam-utils/pkg/errors"
)

const (
	// BaseURL is the base URL for the Chronicling America archive
	BaseURL = "https://chroniclingamerica.loc.gov"

	// SearchEndpoint is the endpoint for the advanced search API
	SearchEndpoint = "/search/pages/results/"

	// FileEndpoint is the endpoint prefix for per-page file downloads
	FileEndpoint = "/lccn/"
)

// FileKind identifies the kind of file associated with an archive page
type FileKind string

const (
	FileText  FileKind = "text"
	FilePDF   FileKind = "pdf"
	FileXML   FileKind = "xml"
	FileImage FileKind = "image"
)

// ParseFileKind converts a string into a FileKind
func ParseFileKind(s string) (FileKind, error) {
	switch FileKind(strings.ToLower(s)) {
	case FileText:
		return FileText, nil
	case FilePDF:
		return FilePDF, nil
	case FileXML:
		return FileXML, nil
	case FileImage:
		return FileImage, nil
	default:
		return "", errs.NewConfigurationError("file kind must be one of text, pdf, xml, image; got %q", s)
	}
}

// Ext returns the file extension used by the archive for this kind
func (k FileKind) Ext() string {
	switch k {
	case FileText:
		return "txt"
	case FilePDF:
		return "pdf"
	case FileXML:
		return "xml"
	case FileImage:
		return "jp2"
	default:
		return ""
	}
}

// encodeParams encodes the query parameters excluding pagination
func (q *Query) encodeParams() url.Values {
	params := url.Values{}

	if len(q.OrText) > 0 {
		params.Set("ortext", strings.Join(q.OrText, " "))
	}
	if len(q.AndText) > 0 {
		params.Set("andtext", strings.Join(q.AndText, " "))
	}
	if q.PhraseText != "" {
		params.Set("phrasetext", q.PhraseText)
	}
	if len(q.ProxText) > 0 {
		params.Set("proxtext", strings.Join(q.ProxText, " "))
	}
	if q.ProxDistance > 0 {
		params.Set("proxdistance", strconv.Itoa(q.ProxDistance))
	}
	if q.State != "" {
		params.Set("state", q.State)
	}
	if q.LCCN != "" {
		params.Set("lccn", q.LCCN)
	}

	params.Set("dateFilterType", q.DateFilterType)
	if q.DateFilterType == DateFilterRange {
		params.Set("date1", q.Date1.Format("01/02/2006"))
		params.Set("date2", q.Date2.Format("01/02/2006"))
	} else {
		params.Set("date1", q.Date1.Format("2006"))
		params.Set("date2", q.Date2.Format("2006"))
	}

	if q.Sequence > 0 {
		params.Set("sequence", strconv.Itoa(q.Sequence))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	params.Set("sort", q.Sort)

	return params
}

// SearchURL constructs the URL for one page of JSON search results under the
// given base URL. pageIndex is 0-based; the API numbers pages from 1.
func SearchURL(base string, q *Query, pageIndex, pageSize int) string {
	params := q.encodeParams()
	params.Set("format", "json")
	params.Set("searchType", "advanced")
	params.Set("rows", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(pageIndex+1))

	return fmt.Sprintf("%s%s?%s", base, SearchEndpoint, params.Encode())
}

// FileURL constructs the download URL for the file of the given kind
// associated with an archive page id. OCR text and XML live under an "ocr"
// suffix; PDF and JP2 replace the id's trailing slash with an extension.
func FileURL(base, id string, kind FileKind) (string, error) {
	switch kind {
	case FileText, FileXML:
		return fmt.Sprintf("%s%s%socr.%s", base, FileEndpoint, id, kind.Ext()), nil
	case FilePDF, FileImage:
		return fmt.Sprintf("%s%s%s.%s", base, FileEndpoint, strings.TrimSuffix(id, "/"), kind.Ext()), nil
	default:
		return "", errs.NewConfigurationError("unknown file kind %q", string(kind))
	}
}

// LocalPath returns the deterministic relative path under a data directory
// for the file of the given kind: the id with its trailing slash removed
// plus the kind's extension.
func LocalPath(id string, kind FileKind) string {
	return fmt.Sprintf("%s.%s", strings.TrimSuffix(id, "/"), kind.Ext())
}
