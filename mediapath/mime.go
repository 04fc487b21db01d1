package mediapath

import (
	"path"
	"strings"
)

// Fixed extension table. Media served through the proxy predates consistent
// content-type metadata, so the extension is the only reliable signal.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".pdf":  "application/pdf",
}

// ContentTypeFor derives a MIME type from a filename extension, defaulting
// to application/octet-stream.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
