package video

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errRangeNotSatisfiable is returned by parseRange when the requested start
// offset lies beyond the end of the object (HTTP 416).
var errRangeNotSatisfiable = errors.New("requested range not satisfiable")

// streamRange is the byte window of a single range request.
// Start and End are inclusive, 0 <= Start <= End < Total.
type streamRange struct {
	Start int64
	End   int64
	Total int64
}

// Length is the number of bytes in the window (the Content-Length of a 206 reply).
func (r *streamRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value, eg "bytes 0-499/1000".
func (r *streamRange) ContentRange() string {
	return fmt.Sprintf("bytes %v-%v/%v", r.Start, r.End, r.Total)
}

// parseRange interprets a Range header of the form "bytes=<start>-[<end>]"
// against an object of 'total' bytes.
//
// Returns (nil, nil) if the header is empty or malformed, in which case the
// caller serves the full object. This mirrors what browsers expect: a server
// that can't make sense of a Range header pretends it wasn't there, rather
// than failing the request. Suffix ranges ("bytes=-500") and multiple ranges
// are not supported, and fall under the same rule.
//
// An 'end' beyond the last byte is clamped to total-1.
// A 'start' beyond the last byte returns errRangeNotSatisfiable.
func parseRange(header string, total int64) (*streamRange, error) {
	if header == "" {
		return nil, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, nil
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, nil
	}
	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}
	end := total - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		e, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, nil
		}
		if e < end {
			end = e
		}
	}
	if start >= total || start > end {
		return nil, errRangeNotSatisfiable
	}
	return &streamRange{Start: start, End: end, Total: total}, nil
}
