package chronam

import (
	"encoding/json"
	"strings"

	errs "github.com/owenleonard11/chronam-utils/pkg/errors"
)

// Record is one digitized newspaper page returned by a search. ID has the
// format <lccn>/<YYYY-MM-DD>/ed-<edition>/seq-<page>/ with the API's /lccn/
// prefix already stripped; every other field of the response item is kept
// verbatim in Fields.
type Record struct {
	ID     string
	Fields map[string]interface{}
}

// UnmarshalJSON decodes a search result item, extracting and normalizing the
// archive id and retaining the remaining fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	id, ok := fields["id"].(string)
	if !ok || id == "" {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "search result item has no id",
		}
	}

	r.ID = strings.TrimPrefix(id, "/lccn/")
	delete(fields, "id")
	r.Fields = fields

	return nil
}

// MarshalJSON restores the wire format, including the /lccn/ prefix
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(r.Fields)+1)
	for k, v := range r.Fields {
		fields[k] = v
	}
	fields["id"] = "/lccn/" + r.ID
	return json.Marshal(fields)
}

// SearchResult is one page of search results from the loc.gov API
type SearchResult struct {
	TotalItems int      `json:"totalItems"`
	StartIndex int      `json:"startIndex"`
	EndIndex   int      `json:"endIndex"`
	Items      []Record `json:"items"`
}
