// Package format renders dates and part images for the console pages.
package format

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/spares-console/resources"
)

const (
	NotAvailable = "N/A"

	dateLayout     = "02-Jan-2006"
	dateTimeLayout = "02 Jan 2006, 15:04"

	avatarURL = "https://ui-avatars.com/api/?name=%s+%s&background=6366f1&color=fff&size=280"
)

// layouts the API is known to send timestamps in.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parse(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Date formats value as dd-Mon-yyyy in local time, or N/A when it is empty or unparsable.
func Date(value string) string {
	return DateIn(value, time.Local)
}

func DateIn(value string, loc *time.Location) string {
	t, ok := parse(value, loc)
	if !ok {
		return NotAvailable
	}
	return t.Format(dateLayout)
}

// DateTime formats value as "02 Jan 2006, 15:04" in local time, or N/A.
func DateTime(value string) string {
	return DateTimeIn(value, time.Local)
}

func DateTimeIn(value string, loc *time.Location) string {
	t, ok := parse(value, loc)
	if !ok {
		return NotAvailable
	}
	return t.Format(dateTimeLayout)
}

// PartImageURL returns the part's first stored image under base, or a generated avatar
// built from the first two words of its name.
func PartImageURL(base string, part *resources.Part) string {
	if part != nil && len(part.Images) > 0 {
		return strings.TrimRight(base, "/") + "/storage/" + part.Images[0]
	}

	first, second := "Part", ""
	if part != nil && part.Name != "" {
		words := strings.Split(part.Name, " ")
		if words[0] != "" {
			first = words[0]
		}
		if len(words) > 1 {
			second = words[1]
		}
	}
	return fmt.Sprintf(avatarURL, url.QueryEscape(first), url.QueryEscape(second))
}
