package mapview

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Status formats the text shown in the status element.
type Status struct {
	printer *message.Printer
}

// NewStatus builds a formatter for a BCP 47 locale such as "en-US".
func NewStatus(locale string) (*Status, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Status{printer: message.NewPrinter(tag)}, nil
}

func (s *Status) Loaded(count int) string {
	return s.printer.Sprintf("%v pictures with valid geo loaded", number.Decimal(count))
}

func (s *Status) Warnings(count int) string {
	return fmt.Sprintf("CSV loaded with %d parse warnings", count)
}

func (s *Status) Failed(err error) string {
	return "Error loading CSV: " + err.Error()
}
