// Package storage mirrors downloaded attachments to an object store.
package storage

import (
	"context"
	"path"
	"strings"
)

// Sink receives files that were written to local disk.
type Sink interface {
	// Put uploads the file at localPath under key.
	Put(ctx context.Context, key, localPath string) error
}

// ObjectKey joins prefix and the slash-separated parts into an object key.
// Empty parts are skipped and backslashes are normalized.
func ObjectKey(prefix string, parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	for _, p := range append([]string{prefix}, parts...) {
		p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
		if p != "" {
			segs = append(segs, p)
		}
	}
	return path.Join(segs...)
}

// ContentType guesses the MIME type of an attachment from its name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml", ".xsd":
		return "application/xml"
	case ".htm", ".html":
		return "text/html"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
