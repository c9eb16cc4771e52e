// Package geonames loads city records from a GeoNames tab-separated dump
// (for example cities15000.txt) and ranks them by population.
package geonames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Zero-based column positions in the GeoNames "geoname" table dump.
const (
	colName        = 2
	colLatitude    = 4
	colLongitude   = 5
	colCountryCode = 8
	colPopulation  = 14

	minColumns = colPopulation + 1
)

// maxLineBytes bounds a single row; the alternatenames column can run long.
const maxLineBytes = 1 << 20

// City is one populated place from the dataset.
type City struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	CountryCode string  `json:"country"`
	Population  int64   `json:"pop"`
}

// FileAccessError reports that the dataset could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("reading dataset %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// MalformedRecordError reports a row that cannot be converted to a City.
type MalformedRecordError struct {
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Load reads every row of the dataset at path and returns the cities sorted
// by population, largest first.
func Load(path string) ([]City, error) {
	return LoadContext(context.Background(), path)
}

// LoadContext is Load with cancellation checked between rows.
func LoadContext(ctx context.Context, path string) ([]City, error) {
	cities, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	SortByPopulation(cities)
	return cities, nil
}

// SortByPopulation orders cities by descending population. Ties keep their
// relative order.
func SortByPopulation(cities []City) {
	sort.SliceStable(cities, func(i, j int) bool {
		return cities[i].Population > cities[j].Population
	})
}

func readFile(ctx context.Context, path string) ([]City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var cities []City
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		city, err := ParseRecord(strings.Split(text, "\t"))
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Line = line
			}
			return nil, err
		}
		cities = append(cities, city)
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}

	return cities, nil
}

// ParseRecord converts the tab-split fields of one row into a City.
// The returned *MalformedRecordError has Line unset.
func ParseRecord(fields []string) (City, error) {
	if len(fields) < minColumns {
		return City{}, &MalformedRecordError{
			Column: -1,
			Reason: fmt.Sprintf("expected at least %d columns, got %d", minColumns, len(fields)),
		}
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[colLatitude]), 64)
	if err != nil {
		return City{}, &MalformedRecordError{Column: colLatitude, Reason: "invalid latitude", Err: err}
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(fields[colLongitude]), 64)
	if err != nil {
		return City{}, &MalformedRecordError{Column: colLongitude, Reason: "invalid longitude", Err: err}
	}
	pop, err := strconv.ParseInt(strings.TrimSpace(fields[colPopulation]), 10, 64)
	if err != nil {
		return City{}, &MalformedRecordError{Column: colPopulation, Reason: "invalid population", Err: err}
	}

	return City{
		Name:        fields[colName],
		Latitude:    lat,
		Longitude:   lng,
		CountryCode: fields[colCountryCode],
		Population:  pop,
	}, nil
}
