package controller

import (
	"encoding/base64"
	"log"
	"os"

	"github.com/baysideportal/media-gateway/mediapath"
)

// 1x1 transparent PNG. Served when no placeholder file is configured so the
// no-404 guarantee holds even on a misconfigured deployment.
var defaultPlaceholder, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
)

func loadPlaceholder(path string) ([]byte, string) {
	if path == "" {
		return defaultPlaceholder, "image/png"
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		log.Printf("Warning: placeholder %q not readable, using built-in: %v", path, err)
		return defaultPlaceholder, "image/png"
	}
	return data, mediapath.ContentTypeFor(path)
}
