package mediapath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_FilesystemRelativeOrder(t *testing.T) {
	r := NewResolver(EnvDevelopment, ".")
	ref := Classify("banner-slides/sunset.png")

	got := r.Resolve(ref)
	require.Equal(t, []CandidateLocation{
		{Kind: LocationFilesystem, Path: filepath.Join("uploads", "banner-slides", "sunset.png")},
		{Kind: LocationFilesystem, Path: filepath.Join("banner-slides", "sunset.png")},
		{Kind: LocationObjectStorage, Bucket: BucketBanner, Key: "sunset.png"},
	}, got)
}

func TestResolve_ProxyQualifiedLiteralFirst(t *testing.T) {
	r := NewResolver(EnvProduction, "/srv/content")
	ref := Classify("/api/storage-proxy/FORUM/abc-123.jpg")

	got := r.Resolve(ref)
	require.NotEmpty(t, got)
	require.Equal(t, CandidateLocation{
		Kind:   LocationObjectStorage,
		Bucket: BucketForum,
		Key:    "abc-123.jpg",
	}, got[0], "literal proxy target must be probed before any filesystem fallback")

	// The inferred object-storage candidate equals the literal one here, so
	// deduplication must leave exactly one object-storage entry.
	var objectCandidates int
	for _, c := range got {
		if c.Kind == LocationObjectStorage {
			objectCandidates++
		}
	}
	require.Equal(t, 1, objectCandidates)
}

func TestResolve_ProxyQualifiedNestedKeyKeepsBothObjectCandidates(t *testing.T) {
	r := NewResolver(EnvDevelopment, ".")
	ref := Classify("/api/storage-proxy/VENDOR/2024/logo.png")

	got := r.Resolve(ref)
	require.Equal(t, []CandidateLocation{
		{Kind: LocationObjectStorage, Bucket: BucketVendor, Key: "2024/logo.png"},
		{Kind: LocationFilesystem, Path: filepath.Join("uploads", "vendor-media", "logo.png")},
		{Kind: LocationFilesystem, Path: filepath.Join("vendor-media", "logo.png")},
		{Kind: LocationObjectStorage, Bucket: BucketVendor, Key: "logo.png"},
	}, got)
}

func TestResolve_RootRelativeStillProbesUploadsTwin(t *testing.T) {
	// Rows sometimes store /real-estate-media/x.jpg while the file only
	// exists under uploads/real-estate-media/x.jpg. The uploads twin must be
	// probed first so those rows keep working.
	r := NewResolver(EnvDevelopment, ".")
	ref := Classify("/real-estate-media/1745824270395-146223667.jpg")

	got := r.Resolve(ref)
	require.Equal(t, CandidateLocation{
		Kind: LocationFilesystem,
		Path: filepath.Join("uploads", "real-estate-media", "1745824270395-146223667.jpg"),
	}, got[0])
	require.Equal(t, CandidateLocation{
		Kind: LocationFilesystem,
		Path: filepath.Join("real-estate-media", "1745824270395-146223667.jpg"),
	}, got[1])
}

func TestResolve_Unresolvable(t *testing.T) {
	r := NewResolver(EnvDevelopment, ".")
	require.Empty(t, r.Resolve(Classify("")))
	require.Empty(t, r.Resolve(Classify("   ")))
}

func TestResolve_External(t *testing.T) {
	r := NewResolver(EnvDevelopment, ".")
	got := r.Resolve(Classify("https://cdn.example.com/x.png"))
	require.Equal(t, []CandidateLocation{
		{Kind: LocationExternal, URL: "https://cdn.example.com/x.png"},
	}, got)
}

func TestResolve_Deterministic(t *testing.T) {
	r := NewResolver(EnvProduction, "/srv/content")
	inputs := []string{
		"banner-slides/sunset.png",
		"/forum-media/a.png",
		"/api/storage-proxy/CALENDAR/e.jpg",
		"loose-file.bin",
	}
	for _, in := range inputs {
		ref := Classify(in)
		first := r.Resolve(ref)
		second := r.Resolve(ref)
		require.Equal(t, first, second, "input %q", in)

		seen := make(map[string]struct{})
		for _, c := range first {
			_, dup := seen[c.String()]
			require.False(t, dup, "duplicate candidate %s for input %q", c, in)
			seen[c.String()] = struct{}{}
		}
	}
}

func TestResolve_EnvironmentDoesNotChangeReadPath(t *testing.T) {
	ref := Classify("banner-slides/sunset.png")
	dev := NewResolver(EnvDevelopment, "/srv/content").Resolve(ref)
	prod := NewResolver(EnvProduction, "/srv/content").Resolve(ref)
	require.Equal(t, dev, prod)
}

func TestWritableRoot(t *testing.T) {
	require.Equal(t, filepath.Join("/srv/content", "uploads"),
		NewResolver(EnvProduction, "/srv/content").WritableRoot())
	require.Equal(t, "/srv/content",
		NewResolver(EnvDevelopment, "/srv/content").WritableRoot())
}

func TestContentTypeFor(t *testing.T) {
	require.Equal(t, "image/png", ContentTypeFor("sunset.png"))
	require.Equal(t, "image/jpeg", ContentTypeFor("a.JPG"))
	require.Equal(t, "video/mp4", ContentTypeFor("clip.mp4"))
	require.Equal(t, "application/octet-stream", ContentTypeFor("archive.zip"))
	require.Equal(t, "application/octet-stream", ContentTypeFor("noext"))
}
