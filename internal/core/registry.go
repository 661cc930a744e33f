package core

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Format identifies one partner settlement layout. The set is closed:
// each value has exactly one adapter in this package.
type Format int

const (
	FormatUnknown Format = iota
	FormatYes24
	FormatKyobo
	FormatAladin
)

// FormatInfo contains display and detection information about a format.
type FormatInfo struct {
	Format  Format
	Key     string   // Stable identifier: "kyobo"
	Store   Store    // Store written into records
	Markers []string // Lowercase filename substrings that select the format
	PerBook bool     // False when the partner only exports daily totals
}

// formats is ordered: Detect checks entries top to bottom and the first
// match wins.
var formats = []FormatInfo{
	{Format: FormatYes24, Key: "yes24", Store: StoreYes24, Markers: []string{"예스24", "yes24"}, PerBook: true},
	{Format: FormatKyobo, Key: "kyobo", Store: StoreKyobo, Markers: []string{"교보", "kyobo"}, PerBook: true},
	{Format: FormatAladin, Key: "aladin", Store: StoreAladin, Markers: []string{"알라딘", "aladin", "aladdin"}, PerBook: false},
}

// String returns the format key.
func (f Format) String() string {
	if info, ok := f.Info(); ok {
		return info.Key
	}
	return "unknown"
}

// Info returns the registry entry for f.
func (f Format) Info() (FormatInfo, bool) {
	for _, info := range formats {
		if info.Format == f {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// Store returns the store name written into records of this format.
func (f Format) Store() Store {
	info, _ := f.Info()
	return info.Store
}

// Formats returns every known format in detection order.
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formats))
	copy(out, formats)
	return out
}

// FormatByKey looks a format up by its key ("yes24", "kyobo", "aladin").
func FormatByKey(key string) (Format, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, info := range formats {
		if info.Key == key {
			return info.Format, true
		}
	}
	return FormatUnknown, false
}

// Detect classifies a file by its base name. Matching is a
// case-insensitive substring test; file contents are never inspected.
//
// Names are NFC-normalized first: macOS hands back Hangul file names in
// decomposed form, which would otherwise never match "교보".
func Detect(filename string) (Format, bool) {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.ToLower(norm.NFC.String(name))

	for _, info := range formats {
		for _, m := range info.Markers {
			if strings.Contains(name, m) {
				return info.Format, true
			}
		}
	}
	return FormatUnknown, false
}
