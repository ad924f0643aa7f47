package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is a resolved, inclusive byte range within a file of known size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange interprets a Range header against a file of the given size.
// The boolean reports whether a usable single range was found. Malformed
// headers, multi-range requests and unsatisfiable ranges all return false,
// which callers treat as "serve the whole file" rather than an error.
func ParseRange(header string, size int64) (ByteRange, bool) {
	if header == "" || size <= 0 {
		return ByteRange{}, false
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return ByteRange{}, false
	}

	// Multi-range responses (multipart/byteranges) are not supported.
	if strings.Contains(spec, ",") {
		return ByteRange{}, false
	}

	start, end, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, false
	}
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	// Suffix form "bytes=-N": the final N bytes.
	if start == "" {
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false
		}
		if n > size {
			n = size
		}
		return ByteRange{Start: size - n, End: size - 1}, true
	}

	startN, err := strconv.ParseInt(start, 10, 64)
	if err != nil || startN < 0 {
		return ByteRange{}, false
	}
	if startN >= size {
		// Unsatisfiable. Serving the full file keeps naive players working.
		return ByteRange{}, false
	}

	// Open-ended "bytes=N-": from N to the end.
	if end == "" {
		return ByteRange{Start: startN, End: size - 1}, true
	}

	endN, err := strconv.ParseInt(end, 10, 64)
	if err != nil || endN < startN {
		return ByteRange{}, false
	}
	if endN > size-1 {
		endN = size - 1
	}
	return ByteRange{Start: startN, End: endN}, true
}
