package mediapath

import (
	"net/url"
	"path"
	"strings"
)

// Classify parses a stored media string into a MediaReference. It is a pure
// function: no I/O, no environment access, identical output for identical
// input. Empty or unparseable input classifies as unresolvable instead of
// returning an error, because a row with no usable media is a normal state.
func Classify(raw string) MediaReference {
	ref := MediaReference{Raw: raw, Kind: KindUnresolvable, Bucket: BucketGeneral}

	s := strings.TrimSpace(raw)
	if s == "" {
		return ref
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		ref.Kind = KindExternalAbsolute
		if u, err := url.Parse(s); err == nil {
			ref.Filename = basename(u.Path)
		}
		return ref
	}

	if strings.HasPrefix(s, ProxyPrefix) {
		return classifyProxy(ref, s[len(ProxyPrefix):])
	}

	// Historical rows carry the uploads prefix inconsistently; strip it and
	// classify what remains.
	stripped := s
	hadUploads := false
	switch {
	case strings.HasPrefix(stripped, "/uploads/"):
		stripped = stripped[len("/uploads/"):]
		hadUploads = true
	case strings.HasPrefix(stripped, "uploads/"):
		stripped = stripped[len("uploads/"):]
		hadUploads = true
	}

	rootRelative := strings.HasPrefix(stripped, "/")
	stripped = strings.TrimPrefix(stripped, "/")
	if stripped == "" {
		return ref
	}

	name := basename(stripped)
	if name == "" {
		return ref
	}
	ref.Filename = name
	ref.Key = stripped

	if dir, rest, ok := strings.Cut(stripped, "/"); ok && rest != "" {
		if bucket, known := BucketForDirectory(dir); known {
			ref.Bucket = bucket
			if rootRelative || hadUploads {
				ref.Kind = KindRootRelative
			} else {
				ref.Kind = KindFilesystemRelative
			}
			return ref
		}
	}

	// No recognizable bucket directory: a bare filename or an unknown
	// directory layout. Treat as a general filesystem-relative reference.
	ref.Kind = KindFilesystemRelative
	ref.Bucket = BucketGeneral
	return ref
}

func classifyProxy(ref MediaReference, rest string) MediaReference {
	bucketSeg, key, ok := strings.Cut(rest, "/")
	if !ok || bucketSeg == "" {
		return ref
	}
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	key = strings.TrimPrefix(key, "/")
	name := basename(key)
	if name == "" {
		return ref
	}
	ref.Kind = KindProxyQualified
	ref.Bucket = ParseBucket(bucketSeg)
	ref.Key = key
	ref.Filename = name
	return ref
}

func basename(p string) string {
	b := path.Base(strings.TrimRight(p, "/"))
	if b == "." || b == "/" {
		return ""
	}
	return b
}
