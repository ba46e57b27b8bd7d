package appwrite

import "encoding/json"

// Queries are sent to the documents API as JSON-encoded strings, one per
// filter or modifier.
type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func (q query) String() string {
	b, _ := json.Marshal(q)
	return string(b)
}

// QueryEqual filters documents whose attribute equals any of the values.
func QueryEqual(attribute string, values ...any) string {
	return query{Method: "equal", Attribute: attribute, Values: values}.String()
}

// QueryOrderDesc sorts results by the attribute, newest first.
func QueryOrderDesc(attribute string) string {
	return query{Method: "orderDesc", Attribute: attribute}.String()
}

// QueryLimit caps the number of returned documents.
func QueryLimit(limit int) string {
	return query{Method: "limit", Values: []any{limit}}.String()
}

// QueryCursorAfter resumes a paginated listing after the given document id.
func QueryCursorAfter(documentID string) string {
	return query{Method: "cursorAfter", Values: []any{documentID}}.String()
}
