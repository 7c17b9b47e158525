// Package publish turns a committed mockup file into the URL handed back to
// callers.
package publish

import (
	"context"
	"net/url"
	"strings"
)

// Publisher makes the file at path reachable and returns its URL. name is the
// file's base name in the temporary-output area.
type Publisher interface {
	Publish(ctx context.Context, path, name string) (string, error)
}

// Local serves files straight from the temporary-output area: the URL is
// BaseURL joined with the file name.
type Local struct {
	BaseURL string
}

func (l Local) Publish(ctx context.Context, path, name string) (string, error) {
	return joinURL(l.BaseURL, name), nil
}

// joinURL appends a slash-separated key to base, escaping each segment.
func joinURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
