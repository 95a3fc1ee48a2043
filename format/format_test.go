package format_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/spares-console/format"
	"github.com/jrsteele09/spares-console/resources"
	"github.com/stretchr/testify/assert"
)

func TestDateIn(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"2025-09-20T10:30:00Z", "20-Sep-2025"},
		{"2025-09-20T23:30:00.123456Z", "20-Sep-2025"},
		{"2025-01-02 08:00:00", "02-Jan-2025"},
		{"2025-03-04", "04-Mar-2025"},
		{"", "N/A"},
		{"   ", "N/A"},
		{"not a date", "N/A"},
		{"2025-13-40", "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, format.DateIn(tt.value, time.UTC))
		})
	}
}

func TestDateIn_ConvertsToLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "21-Sep-2025", format.DateIn("2025-09-20T20:00:00Z", tokyo))
	assert.Equal(t, "21 Sep 2025, 05:00", format.DateTimeIn("2025-09-20T20:00:00Z", tokyo))
}

func TestDateTimeIn(t *testing.T) {
	assert.Equal(t, "20 Sep 2025, 14:05", format.DateTimeIn("2025-09-20T14:05:59Z", time.UTC))
	assert.Equal(t, "N/A", format.DateTimeIn("yesterday", time.UTC))
	assert.Equal(t, "N/A", format.DateTime(""))
	assert.Equal(t, "N/A", format.Date(""))
}

func TestPartImageURL(t *testing.T) {
	avatar := func(first, second string) string {
		return "https://ui-avatars.com/api/?name=" + first + "+" + second + "&background=6366f1&color=fff&size=280"
	}

	tests := []struct {
		name     string
		part     *resources.Part
		expected string
	}{
		{"stored image", &resources.Part{Name: "Brake pad", Images: []string{"parts/1.png", "parts/2.png"}}, "https://api.example.com/storage/parts/1.png"},
		{"two words", &resources.Part{Name: "Brake pad set"}, avatar("Brake", "pad")},
		{"one word", &resources.Part{Name: "Alternator"}, avatar("Alternator", "")},
		{"no name", &resources.Part{}, avatar("Part", "")},
		{"nil part", nil, avatar("Part", "")},
		{"leading space", &resources.Part{Name: " hose"}, avatar("Part", "hose")},
		{"empty images", &resources.Part{Name: "Bulb", Images: []string{}}, avatar("Bulb", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, format.PartImageURL("https://api.example.com/", tt.part))
		})
	}
}
