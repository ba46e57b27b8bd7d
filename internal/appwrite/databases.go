package appwrite

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Document is a single row from a collection. Appwrite returns user attributes
// at the top level next to the $-prefixed system fields, so the whole payload
// is kept as a map and read through typed accessors.
type Document map[string]any

// ID returns the storage-assigned document identifier.
func (d Document) ID() string {
	return d.String("$id")
}

// String reads a string attribute, returning "" for absent or null values.
func (d Document) String(key string) string {
	v, _ := d[key].(string)
	return v
}

// Int64 reads a numeric attribute. JSON numbers decode as float64.
func (d Document) Int64(key string) int64 {
	switch v := d[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Bool reads a boolean attribute.
func (d Document) Bool(key string) bool {
	v, _ := d[key].(bool)
	return v
}

// DocumentList is the envelope of a list call.
type DocumentList struct {
	Total     int64      `json:"total"`
	Documents []Document `json:"documents"`
}

// UniqueID generates a collision-resistant document identifier.
func UniqueID() string {
	return uuid.New().String()
}

func (c *Client) documentsPath(databaseID, collectionID string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents", databaseID, collectionID)
}

// CreateDocument inserts a new document with the given id and attributes.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (Document, error) {
	body := map[string]any{
		"documentId": documentID,
		"data":       data,
	}
	var doc Document
	if err := c.do(ctx, "POST", c.documentsPath(databaseID, collectionID), body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments fetches documents matching the given queries.
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []string) (*DocumentList, error) {
	path := c.documentsPath(databaseID, collectionID)
	if len(queries) > 0 {
		params := url.Values{}
		for _, q := range queries {
			params.Add("queries[]", q)
		}
		path += "?" + params.Encode()
	}
	var list DocumentList
	if err := c.do(ctx, "GET", path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateDocument patches the given attributes, leaving the rest untouched.
func (c *Client) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (Document, error) {
	body := map[string]any{"data": data}
	var doc Document
	if err := c.do(ctx, "PATCH", c.documentsPath(databaseID, collectionID)+"/"+documentID, body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document by its storage id.
func (c *Client) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	return c.do(ctx, "DELETE", c.documentsPath(databaseID, collectionID)+"/"+documentID, nil, nil)
}
