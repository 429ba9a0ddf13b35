// Package csvparse turns CSV text with a header row into named rows plus a
// list of non-fatal diagnostics.
//
// Blank lines are always skipped and every value stays text. Rows with a
// field count different from the header are kept and reported; rows that
// cannot be tokenized (broken quoting) are dropped and reported.
package csvparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"PhotoMap/src/types"
)

const (
	CodeTooFewFields  = "TooFewFields"
	CodeTooManyFields = "TooManyFields"
	CodeInvalidQuotes = "InvalidQuotes"
	CodeParseError    = "ParseError"
)

type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// Comment starts a comment line when non-zero. Zero disables comments.
	Comment rune
}

func DefaultOptions() Options {
	return Options{Comma: ','}
}

type Parser struct {
	Options Options
}

func New(opts Options) *Parser {
	return &Parser{Options: opts}
}

// Parse reads the header and every data row. An error is returned only when
// the header itself is unreadable.
func (p *Parser) Parse(text string) ([]types.Row, []types.ParseWarning, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	if p.Options.Comma != 0 {
		reader.Comma = p.Options.Comma
	}
	reader.Comment = p.Options.Comment
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV header: %w", err)
	}

	var (
		rows     []types.Row
		warnings []types.ParseWarning
	)
	for index := 0; ; index++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return rows, warnings, fmt.Errorf("read CSV row %d: %w", index, err)
			}
			warnings = append(warnings, types.ParseWarning{
				Row:     index,
				Code:    codeFor(parseErr),
				Message: parseErr.Error(),
			})
			continue
		}

		switch {
		case len(record) < len(header):
			warnings = append(warnings, types.ParseWarning{
				Row:     index,
				Code:    CodeTooFewFields,
				Message: fmt.Sprintf("Too few fields: expected %d fields but parsed %d", len(header), len(record)),
			})
		case len(record) > len(header):
			warnings = append(warnings, types.ParseWarning{
				Row:     index,
				Code:    CodeTooManyFields,
				Message: fmt.Sprintf("Too many fields: expected %d fields but parsed %d", len(header), len(record)),
			})
		}

		row := make(types.Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, warnings, nil
}

func codeFor(err *csv.ParseError) string {
	if errors.Is(err.Err, csv.ErrQuote) || errors.Is(err.Err, csv.ErrBareQuote) {
		return CodeInvalidQuotes
	}
	return CodeParseError
}
