package mediapath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		kind     Kind
		bucket   Bucket
		filename string
		key      string
	}{
		{
			name:   "empty string",
			raw:    "",
			kind:   KindUnresolvable,
			bucket: BucketGeneral,
		},
		{
			name:   "whitespace only",
			raw:    "   \t ",
			kind:   KindUnresolvable,
			bucket: BucketGeneral,
		},
		{
			name:     "external http",
			raw:      "http://cdn.example.com/img/photo.png",
			kind:     KindExternalAbsolute,
			bucket:   BucketGeneral,
			filename: "photo.png",
		},
		{
			name:     "external https",
			raw:      "https://cdn.example.com/photo.jpg",
			kind:     KindExternalAbsolute,
			bucket:   BucketGeneral,
			filename: "photo.jpg",
		},
		{
			name:     "proxy qualified",
			raw:      "/api/storage-proxy/FORUM/abc-123.jpg",
			kind:     KindProxyQualified,
			bucket:   BucketForum,
			filename: "abc-123.jpg",
			key:      "abc-123.jpg",
		},
		{
			name:     "proxy qualified nested key",
			raw:      "/api/storage-proxy/VENDOR/2024/logo.png",
			kind:     KindProxyQualified,
			bucket:   BucketVendor,
			filename: "logo.png",
			key:      "2024/logo.png",
		},
		{
			name:     "proxy qualified escaped key",
			raw:      "/api/storage-proxy/CALENDAR/summer%20fair.png",
			kind:     KindProxyQualified,
			bucket:   BucketCalendar,
			filename: "summer fair.png",
			key:      "summer fair.png",
		},
		{
			name:     "proxy qualified unknown bucket falls back",
			raw:      "/api/storage-proxy/XYZ/pic.png",
			kind:     KindProxyQualified,
			bucket:   BucketDefault,
			filename: "pic.png",
			key:      "pic.png",
		},
		{
			name:   "proxy qualified without key",
			raw:    "/api/storage-proxy/FORUM",
			kind:   KindUnresolvable,
			bucket: BucketGeneral,
		},
		{
			name:     "root relative known directory",
			raw:      "/banner-slides/sunset.png",
			kind:     KindRootRelative,
			bucket:   BucketBanner,
			filename: "sunset.png",
			key:      "banner-slides/sunset.png",
		},
		{
			name:     "relative known directory",
			raw:      "banner-slides/sunset.png",
			kind:     KindFilesystemRelative,
			bucket:   BucketBanner,
			filename: "sunset.png",
			key:      "banner-slides/sunset.png",
		},
		{
			name:     "uploads prefix with known directory",
			raw:      "/uploads/real-estate-media/1745824270395-146223667.jpg",
			kind:     KindRootRelative,
			bucket:   BucketRealEstate,
			filename: "1745824270395-146223667.jpg",
			key:      "real-estate-media/1745824270395-146223667.jpg",
		},
		{
			name:     "uploads prefix without leading slash",
			raw:      "uploads/forum-media/post.gif",
			kind:     KindRootRelative,
			bucket:   BucketForum,
			filename: "post.gif",
			key:      "forum-media/post.gif",
		},
		{
			name:     "uploads prefix unknown directory",
			raw:      "/uploads/misc/file.dat",
			kind:     KindFilesystemRelative,
			bucket:   BucketGeneral,
			filename: "file.dat",
			key:      "misc/file.dat",
		},
		{
			name:     "bare filename",
			raw:      "avatar-7.png",
			kind:     KindFilesystemRelative,
			bucket:   BucketGeneral,
			filename: "avatar-7.png",
			key:      "avatar-7.png",
		},
		{
			name:     "unknown root directory",
			raw:      "/old-site/images/logo.jpg",
			kind:     KindFilesystemRelative,
			bucket:   BucketGeneral,
			filename: "logo.jpg",
			key:      "old-site/images/logo.jpg",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref := Classify(tc.raw)
			require.Equal(t, tc.raw, ref.Raw)
			require.Equal(t, tc.kind, ref.Kind)
			require.Equal(t, tc.bucket, ref.Bucket)
			require.Equal(t, tc.filename, ref.Filename)
			if tc.key != "" {
				require.Equal(t, tc.key, ref.Key)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	inputs := []string{
		"",
		"/banner-slides/sunset.png",
		"uploads/forum-media/a.png",
		"/api/storage-proxy/FORUM/abc.jpg",
		"https://example.com/x.png",
		"whatever.bin",
	}
	// Same input must always yield the same output.
	for _, in := range inputs {
		first := Classify(in)
		second := Classify(in)
		require.Equal(t, first, second, "input %q", in)
	}
}

func TestClassify_FilenameNeverEmptyWhenResolvable(t *testing.T) {
	inputs := []string{
		"/banner-slides/sunset.png",
		"banner-slides/sunset.png",
		"uploads/calendar/event.jpg",
		"/api/storage-proxy/AVATARS/u1.png",
		"plain.png",
		"/unknown-dir/deep/nested/f.webp",
	}
	for _, in := range inputs {
		ref := Classify(in)
		require.True(t, ref.Resolvable(), "input %q", in)
		require.NotEmpty(t, ref.Filename, "input %q", in)
	}
}

func TestParseBucket(t *testing.T) {
	require.Equal(t, BucketForum, ParseBucket("FORUM"))
	require.Equal(t, BucketForum, ParseBucket("forum"))
	require.Equal(t, BucketForum, ParseBucket("forum-media"))
	require.Equal(t, BucketRealEstate, ParseBucket("real-estate-media"))
	require.Equal(t, BucketDefault, ParseBucket("no-such-bucket"))
}

func TestCanonicalProxyPath(t *testing.T) {
	require.Equal(t, "/api/storage-proxy/FORUM/abc.jpg", CanonicalProxyPath(BucketForum, "abc.jpg"))
	require.Equal(t, "/api/storage-proxy/BANNER/sunset.png", CanonicalProxyPath(BucketBanner, "/sunset.png"))

	// The canonical form must classify as proxy-qualified so a second rewrite
	// pass is a no-op.
	ref := Classify(CanonicalProxyPath(BucketForum, "abc.jpg"))
	require.Equal(t, KindProxyQualified, ref.Kind)
	require.Equal(t, BucketForum, ref.Bucket)
	require.Equal(t, "abc.jpg", ref.Key)
}
