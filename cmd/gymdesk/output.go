package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/gymdesk/ports"
)

const dateLayout = "2006-01-02"

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

// describeError rewords store errors for the terminal.
func describeError(err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return errors.New("not found")
	}
	return err
}

// parseDateFlag parses an optional YYYY-MM-DD flag in loc. Empty means zero.
func parseDateFlag(name, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, value)
	}
	return t, nil
}
