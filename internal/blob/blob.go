// Package blob stores uploaded files and hands back public URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Store persists an uploaded object under a key and returns the public
// URL it will be served from.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// DocumentKey builds the storage key for an application document. Keys
// include a nanosecond timestamp so repeated uploads never collide.
func DocumentKey(appID, filename string, now time.Time) string {
	return fmt.Sprintf("documents/%s/%d.%s", appID, now.UnixNano(), ext(filename))
}

// LogoKey builds the storage key for an agent's logo.
func LogoKey(agentID, filename string, now time.Time) string {
	return fmt.Sprintf("logos/%s/%d.%s", agentID, now.UnixNano(), ext(filename))
}

// BackgroundKey builds the storage key for an agent's background image.
func BackgroundKey(agentID, filename string, now time.Time) string {
	return fmt.Sprintf("backgrounds/%s/%d.%s", agentID, now.UnixNano(), ext(filename))
}

func ext(filename string) string {
	e := strings.TrimPrefix(path.Ext(filename), ".")
	if e == "" {
		return "bin"
	}
	return strings.ToLower(e)
}
