// Package mediapath is the single source of truth for classifying stored
// media references and computing where the underlying asset may live. Both
// the storage proxy and the reference rewriter go through this package so
// the two can never disagree about what a stored string means.
package mediapath

import "strings"

// Kind is the semantic type of a stored media reference.
type Kind string

const (
	KindUnresolvable       Kind = "unresolvable"
	KindFilesystemRelative Kind = "filesystem_relative"
	KindRootRelative       Kind = "root_relative"
	KindProxyQualified     Kind = "proxy_qualified"
	KindExternalAbsolute   Kind = "external_absolute"
)

// Bucket is a logical media category. It names both the object-storage
// bucket and the legacy directory that historically held the same files.
type Bucket string

const (
	BucketCalendar   Bucket = "CALENDAR"
	BucketForum      Bucket = "FORUM"
	BucketVendor     Bucket = "VENDOR"
	BucketRealEstate Bucket = "REAL_ESTATE"
	BucketAvatars    Bucket = "AVATARS"
	BucketBanner     Bucket = "BANNER"
	BucketGeneral    Bucket = "GENERAL"
	BucketDefault    Bucket = "DEFAULT"
)

// ProxyPrefix is the canonical reference prefix served by the gateway.
const ProxyPrefix = "/api/storage-proxy/"

// bucketDirectories maps each logical bucket to its directory name. The same
// name is used for the legacy filesystem trees and the object-storage bucket,
// which is how the historical data was laid out.
var bucketDirectories = map[Bucket]string{
	BucketCalendar:   "calendar",
	BucketForum:      "forum-media",
	BucketVendor:     "vendor-media",
	BucketRealEstate: "real-estate-media",
	BucketAvatars:    "avatars",
	BucketBanner:     "banner-slides",
	BucketGeneral:    "content-media",
	BucketDefault:    "content-media",
}

var directoryBuckets = map[string]Bucket{
	"calendar":          BucketCalendar,
	"forum-media":       BucketForum,
	"vendor-media":      BucketVendor,
	"real-estate-media": BucketRealEstate,
	"avatars":           BucketAvatars,
	"banner-slides":     BucketBanner,
	"content-media":     BucketGeneral,
}

// Buckets returns every logical bucket, catch-all included.
func Buckets() []Bucket {
	return []Bucket{
		BucketCalendar,
		BucketForum,
		BucketVendor,
		BucketRealEstate,
		BucketAvatars,
		BucketBanner,
		BucketGeneral,
		BucketDefault,
	}
}

// LegacyDirectories returns the distinct legacy directory names, for
// registering pass-through routes.
func LegacyDirectories() []string {
	return []string{
		"calendar",
		"forum-media",
		"vendor-media",
		"real-estate-media",
		"avatars",
		"banner-slides",
		"content-media",
	}
}

// DirectoryFor returns the directory/bucket name for a logical bucket.
// Unknown buckets fall back to the GENERAL directory.
func DirectoryFor(b Bucket) string {
	if dir, ok := bucketDirectories[b]; ok {
		return dir
	}
	return bucketDirectories[BucketGeneral]
}

// BucketForDirectory maps a path segment back to its logical bucket.
func BucketForDirectory(dir string) (Bucket, bool) {
	b, ok := directoryBuckets[strings.ToLower(dir)]
	return b, ok
}

// ParseBucket accepts either a logical bucket name (any case) or a directory
// name. Anything unrecognized maps to the DEFAULT catch-all.
func ParseBucket(s string) Bucket {
	switch Bucket(strings.ToUpper(s)) {
	case BucketCalendar, BucketForum, BucketVendor, BucketRealEstate,
		BucketAvatars, BucketBanner, BucketGeneral, BucketDefault:
		return Bucket(strings.ToUpper(s))
	}
	if b, ok := BucketForDirectory(s); ok {
		return b
	}
	return BucketDefault
}

// MediaReference is a stored media string after classification.
type MediaReference struct {
	Raw      string
	Kind     Kind
	Bucket   Bucket
	Key      string // object key for proxy-qualified references, otherwise the path remainder
	Filename string // basename; empty only for unresolvable and external references
}

// Resolvable reports whether the reference can be probed at all.
func (r MediaReference) Resolvable() bool {
	return r.Kind != KindUnresolvable
}

// CanonicalProxyPath renders the canonical proxy-qualified form of a
// bucket/key pair. The rewriter converges stored references to this form.
func CanonicalProxyPath(bucket Bucket, key string) string {
	return ProxyPrefix + string(bucket) + "/" + strings.TrimPrefix(key, "/")
}
