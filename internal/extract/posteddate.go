package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativePattern pairs a "N units ago" regexp with the canonical unit name
// used when re-emitting the value.
type relativePattern struct {
	pattern *regexp.Regexp
	unit    string
}

var relativePatterns = []relativePattern{
	{regexp.MustCompile(`(?i)(\d+)\s*(?:hour|hr)s?\s*ago`), "hours"},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:day|d)s?\s*ago`), "days"},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:week|wk|w)s?\s*ago`), "weeks"},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:month|mo)s?\s*ago`), "months"},
}

var absoluteDatePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}`)

// ParsePostedDateText normalises a posted-date label such as
// "Posted 2 days ago" or "Reposted 1 week ago". Short unrecognised labels
// pass through unchanged; long ones are dropped.
func ParsePostedDateText(text string) string {
	for _, rp := range relativePatterns {
		if m := rp.pattern.FindStringSubmatch(text); m != nil {
			value, _ := strconv.Atoi(m[1])
			return formatRelative(value, rp.unit)
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "today") || strings.Contains(lower, "just now") {
		return "Today"
	}
	if strings.Contains(lower, "yesterday") {
		return "Yesterday"
	}

	if m := absoluteDatePattern.FindString(text); m != "" {
		return m
	}

	if len(text) < 50 {
		return text
	}
	return ""
}

func formatRelative(value int, unit string) string {
	if value == 1 {
		return "1 " + strings.TrimSuffix(unit, "s") + " ago"
	}
	return fmt.Sprintf("%d %s ago", value, unit)
}

// FormatPostedDate converts a machine datetime (RFC 3339 or date-only) into
// the same relative buckets the text parser emits. Buckets use floor
// division so one hour ago never becomes "1 day ago". Dates older than a
// year fall back to an absolute "Jan 2, 2006" form. Unparseable input is
// returned unchanged.
func FormatPostedDate(datetime string, now time.Time) string {
	date, err := parseDatetime(datetime)
	if err != nil {
		return datetime
	}

	diff := now.Sub(date)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff.Hours() / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		weeks := days / 7
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case days < 365:
		months := days / 30
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	}
	return date.Format("Jan 2, 2006")
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}
