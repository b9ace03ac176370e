package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formatSeconds renders a duration in seconds as "h:mm".
func formatSeconds(seconds float64) string {
	total := int(seconds / 60)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// formatAmount renders a chargeable amount, or a dash when the rate is
// undefined.
func formatAmount(amount *float64) string {
	if amount == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *amount)
}

// parseID parses a decimal entity id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseOptionalID parses an id, with "" meaning none.
func parseOptionalID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseOptionalRate parses an hourly rate, with "" meaning none.
func parseOptionalRate(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q", s)
	}
	return &rate, nil
}

// parseDay parses "YYYY-MM-DD" in the local time zone, with "" meaning today.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return day, nil
}

// parseTimestamp parses "YYYY-MM-DD HH:MM" in the local time zone.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (want YYYY-MM-DD HH:MM)", s)
	}
	return t, nil
}

// parseIDList parses a comma-separated id list.
func parseIDList(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		id, err := parseID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}
