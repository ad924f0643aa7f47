package media

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name      string
		requested string
		wantErr   bool
		wantRel   string
	}{
		{"Simple file", "clip.mp4", false, "clip.mp4"},
		{"Nested file", "2024/07/clip.mp4", false, filepath.Join("2024", "07", "clip.mp4")},
		{"Leading slash", "/clip.mp4", false, "clip.mp4"},
		{"Dot segments collapsing inside", "a/../clip.mp4", false, "clip.mp4"},
		{"Parent traversal", "../etc/passwd", true, ""},
		{"Deep traversal", "a/../../../../etc/passwd", true, ""},
		{"Encoded-style backslash traversal", `..\..\secret`, true, ""},
		{"Root itself", ".", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(root, tt.requested)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoot)
				return
			}
			require.NoError(t, err)
			want := filepath.Join(root, tt.wantRel)
			assert.Equal(t, filepath.Clean(want), got)
		})
	}
}

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name   string
		header string
		wantOK bool
		want   ByteRange
	}{
		{"No header", "", false, ByteRange{}},
		{"Full prefix", "bytes=0-", true, ByteRange{Start: 0, End: 999}},
		{"Open ended from offset", "bytes=500-", true, ByteRange{Start: 500, End: 999}},
		{"Bounded", "bytes=100-199", true, ByteRange{Start: 100, End: 199}},
		{"End clamped to size", "bytes=900-5000", true, ByteRange{Start: 900, End: 999}},
		{"Suffix", "bytes=-200", true, ByteRange{Start: 800, End: 999}},
		{"Suffix longer than file", "bytes=-5000", true, ByteRange{Start: 0, End: 999}},
		{"Start past end unsatisfiable", "bytes=1000-", false, ByteRange{}},
		{"Inverted", "bytes=200-100", false, ByteRange{}},
		{"Multi-range unsupported", "bytes=0-100,200-300", false, ByteRange{}},
		{"Wrong unit", "items=0-100", false, ByteRange{}},
		{"Garbage", "bytes=abc-def", false, ByteRange{}},
		{"Bare dash", "bytes=-", false, ByteRange{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRange(tt.header, size)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestByteRange_Helpers(t *testing.T) {
	r := ByteRange{Start: 100, End: 199}
	assert.Equal(t, int64(100), r.Length())
	assert.Equal(t, "bytes 100-199/1000", r.ContentRange(1000))
}
