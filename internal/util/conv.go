package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a positive id; empty, zero and malformed values are rejected.
func ParseID(name, s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidArgument, name)
	}
	return uint(id), nil
}

// ParseOptionalID returns 0 when s is empty.
func ParseOptionalID(name, s string) (uint, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseID(name, s)
}

// ParseLimit 解析分页数量，空值返回默认值，超过上限报错
func ParseLimit(s string, def, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, max)
	}
	return n, nil
}

// Clamp 将值限制在 [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
