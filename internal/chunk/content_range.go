package chunk

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseContentRange parses "bytes <start>-<end>/<total>" where end is exclusive.
func ParseContentRange(header string) (start, end, total int64, err error) {
	value := strings.TrimSpace(header)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, 0, 0, fmt.Errorf("%w: missing bytes unit", ErrInvalidRange)
	}
	value = strings.TrimSpace(strings.TrimPrefix(value, "bytes "))
	span, totalPart, ok := strings.Cut(value, "/")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: missing total", ErrInvalidRange)
	}
	startPart, endPart, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: missing end", ErrInvalidRange)
	}
	if start, err = strconv.ParseInt(strings.TrimSpace(startPart), 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad start", ErrInvalidRange)
	}
	if end, err = strconv.ParseInt(strings.TrimSpace(endPart), 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad end", ErrInvalidRange)
	}
	if total, err = strconv.ParseInt(strings.TrimSpace(totalPart), 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad total", ErrInvalidRange)
	}
	if err := checkRange(start, end, total); err != nil {
		return 0, 0, 0, err
	}
	return start, end, total, nil
}

func checkRange(start, end, total int64) error {
	if start < 0 || start >= end || end > total {
		return fmt.Errorf("%w: %d-%d/%d", ErrInvalidRange, start, end, total)
	}
	return nil
}
