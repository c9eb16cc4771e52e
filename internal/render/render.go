// Package render prints the selected cities.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/citygap/internal/geonames"
)

// Output formats, also the values accepted by output.format.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// ErrUnknownFormat is returned for a format other than table, json or ndjson.
var ErrUnknownFormat = errors.New("unknown output format")

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// coordinatePrecision is the number of decimals GeoNames publishes.
const coordinatePrecision = 5

// printer formats populations with thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

//nolint:gochecknoglobals // Style constants.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Options controls rendering.
type Options struct {
	// Styled enables terminal colours in table output.
	Styled bool
}

// Cities writes cities to w in format.
func Cities(w io.Writer, format string, cities []geonames.City, opts Options) error {
	switch format {
	case FormatTable, "":
		return Table(w, cities, opts)
	case FormatJSON:
		return JSON(w, cities)
	case FormatNDJSON:
		return NDJSON(w, cities)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Table writes an aligned table with one row per city.
func Table(w io.Writer, cities []geonames.City, opts Options) error {
	if len(cities) == 0 {
		msg := "No cities without an article were found."
		if opts.Styled {
			msg = mutedStyle.Render(msg)
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, tabwriterPadding, ' ', 0)

	if _, err := fmt.Fprintln(tw, "#\tNAME\tCOUNTRY\tPOPULATION\tLATITUDE\tLONGITUDE"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range cities {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			c.Name,
			c.CountryCode,
			FormatPopulation(c.Population),
			strconv.FormatFloat(c.Latitude, 'f', coordinatePrecision, 64),
			strconv.FormatFloat(c.Longitude, 'f', coordinatePrecision, 64),
		); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	// Style after alignment; escape sequences would skew tabwriter widths.
	out := buf.String()
	if opts.Styled {
		header, rest, _ := strings.Cut(out, "\n")
		out = headerStyle.Render(header) + "\n" + rest
	}
	_, err := io.WriteString(w, out)
	return err
}

// JSON writes cities as one indented JSON array.
func JSON(w io.Writer, cities []geonames.City) error {
	if cities == nil {
		cities = []geonames.City{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cities); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// NDJSON writes one JSON object per line.
func NDJSON(w io.Writer, cities []geonames.City) error {
	enc := json.NewEncoder(w)
	for _, c := range cities {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding NDJSON: %w", err)
		}
	}
	return nil
}

// FormatPopulation formats n with thousand separators, e.g. "1,234,567".
func FormatPopulation(n int64) string {
	return printer.Sprintf("%d", n)
}
