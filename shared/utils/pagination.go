package utils

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Separator for time-based cursors
const timeCursorSeparator = "_"

// EncodeCursor creates a base64 encoded cursor string from time and a bigserial ID.
func EncodeCursor(t time.Time, id int64) string {
	if id <= 0 || t.IsZero() {
		return ""
	}
	// Use nanoseconds for precision
	cursorData := fmt.Sprintf("%d%s%d", t.UnixNano(), timeCursorSeparator, id)
	return base64.URLEncoding.EncodeToString([]byte(cursorData))
}

// DecodeCursor parses a base64 encoded time-based cursor string into time and ID.
// Пустой курсор валиден и означает начало списка.
func DecodeCursor(cursor string) (time.Time, int64, error) {
	if cursor == "" {
		return time.Time{}, 0, nil
	}

	decodedBytes, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid cursor base64 format: %w", err)
	}

	parts := strings.SplitN(string(decodedBytes), timeCursorSeparator, 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor separator format, expected 2 parts, got %d", len(parts))
	}

	timestampNano, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid cursor timestamp format: %w", err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor id format: %q", parts[1])
	}

	return time.Unix(0, timestampNano).UTC(), id, nil
}
