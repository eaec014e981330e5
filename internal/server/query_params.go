package server

import (
	"errors"
	"strconv"
	"strings"
)

// parsePositiveInt parses a 1-based paging parameter, falling back to def
// when the value is absent.
func parsePositiveInt(value string, def int) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 1 {
		return 0, errors.New("invalid_positive_int")
	}
	return parsed, nil
}
