package card

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var csvColumns = []string{"ID", "Name", "Specialty", "Contribution", "Price", "ImageUrl"}

// LoadFile reads the catalog source at path. See LoadCSV for the partial-load contract.
func LoadFile(path string) ([]Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses cards from a CSV stream whose header names the columns
// ID, Name, Specialty, Contribution, Price and ImageUrl in any order.
//
// Loading stops at the first record that cannot be parsed. The cards read
// before it are returned together with the error, so callers can log the
// failure and keep serving what was loaded.
func LoadCSV(r io.Reader) ([]Card, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog: missing header row")
		}
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	cols := make([]int, len(csvColumns))
	for i, name := range csvColumns {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("catalog: header missing column %q", name)
		}
		cols[i] = pos
	}

	var cards []Card
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return cards, nil
		}
		if err != nil {
			return cards, fmt.Errorf("catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)
		c, err := parseRecord(record, cols)
		if err != nil {
			return cards, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		cards = append(cards, c)
	}
}

func parseRecord(record []string, cols []int) (Card, error) {
	field := func(i int) (string, error) {
		pos := cols[i]
		if pos >= len(record) {
			return "", fmt.Errorf("missing %s", csvColumns[i])
		}
		return strings.TrimSpace(record[pos]), nil
	}

	values := make([]string, len(cols))
	for i := range cols {
		v, err := field(i)
		if err != nil {
			return Card{}, err
		}
		values[i] = v
	}

	id, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return Card{}, fmt.Errorf("invalid ID %q", values[0])
	}
	price, err := decimal.NewFromString(values[4])
	if err != nil {
		return Card{}, fmt.Errorf("invalid Price %q", values[4])
	}
	if price.IsNegative() {
		return Card{}, fmt.Errorf("negative Price %q", values[4])
	}

	return Card{
		ID:           id,
		Name:         values[1],
		Specialty:    values[2],
		Contribution: values[3],
		Price:        price,
		ImageURL:     values[5],
	}, nil
}
