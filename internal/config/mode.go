package config

import "strings"

// Mode selects how candidates are accepted into the result.
type Mode string

const (
	// ModeNaive accepts every city the lookup reports as missing an article.
	ModeNaive Mode = "naive"
	// ModeManual asks the operator to confirm each candidate.
	ModeManual Mode = "manual"
)

// legacyModes maps the mode names used by earlier releases.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var legacyModes = map[string]Mode{
	"geonames_naive":  ModeNaive,
	"geonames_manual": ModeManual,
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch Mode(name) {
	case ModeNaive, ModeManual:
		return Mode(name), nil
	}
	if m, ok := legacyModes[name]; ok {
		return m, nil
	}
	return "", invalid("search.mode", s, ErrInvalidMode)
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }
