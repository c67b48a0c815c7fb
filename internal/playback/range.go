package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span within a file of known size.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a Range request header against a file of the given size.
// A missing header returns (nil, nil). Multi-range requests are served as
// the first range only.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	var start, end int64
	if first == "" {
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrInvalidRange
		}
		start = size - n
		if start < 0 {
			start = 0
		}
		end = size - 1
	} else {
		var err error
		start, err = strconv.ParseInt(first, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		if last == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(last, 10, 64)
			if err != nil {
				return nil, ErrInvalidRange
			}
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	if end >= size {
		end = size - 1
	}
	return &ByteRange{Start: start, End: end}, nil
}
