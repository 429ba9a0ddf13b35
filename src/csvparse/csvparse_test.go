package csvparse

import (
	"testing"
)

func TestParseHeaderRows(t *testing.T) {
	text := "\ufefflatitude,longitude,title\n51.5,-0.12,London\n\n\n48.85,2.35,\"Paris, France\"\n"

	rows, warnings, err := New(DefaultOptions()).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank lines skipped)", len(rows))
	}
	if rows[0]["latitude"] != "51.5" || rows[0]["title"] != "London" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1]["title"] != "Paris, France" {
		t.Fatalf("quoted field = %q", rows[1]["title"])
	}
}

func TestParseFieldCountWarnings(t *testing.T) {
	text := "a,b,c\n1,2\n1,2,3,4\n1,2,3\n"

	rows, warnings, err := New(DefaultOptions()).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: mismatched rows are kept", len(rows))
	}
	if _, ok := rows[0]["c"]; ok {
		t.Fatalf("short row should not carry column c: %v", rows[0])
	}

	want := []struct {
		row  int
		code string
	}{
		{0, CodeTooFewFields},
		{1, CodeTooManyFields},
	}
	if len(warnings) != len(want) {
		t.Fatalf("got %d warnings, want %d: %+v", len(warnings), len(want), warnings)
	}
	for i, w := range want {
		if warnings[i].Row != w.row || warnings[i].Code != w.code {
			t.Errorf("warning %d = %+v, want row %d code %s", i, warnings[i], w.row, w.code)
		}
	}
}

// TestParseBrokenQuotes checks that a row the tokenizer rejects is reported
// and skipped while the rows after it still come through.
func TestParseBrokenQuotes(t *testing.T) {
	text := "a,b\n1,\"x\"y\n2,3\n"

	rows, warnings, err := New(DefaultOptions()).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != CodeInvalidQuotes {
		t.Fatalf("warnings = %+v, want one %s", warnings, CodeInvalidQuotes)
	}
	if len(rows) != 1 || rows[0]["a"] != "2" {
		t.Fatalf("rows = %v, want only the row after the broken one", rows)
	}
}

func TestParseCommentsDisabled(t *testing.T) {
	text := "title,x\n#not a comment,1\n"

	rows, _, err := New(DefaultOptions()).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "#not a comment" {
		t.Fatalf("rows = %v", rows)
	}

	rows, _, err = New(Options{Comment: '#'}).Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("comment line should be skipped when enabled, got %v", rows)
	}
}

func TestParseEmpty(t *testing.T) {
	rows, warnings, err := New(DefaultOptions()).Parse("")
	if err != nil || rows != nil || warnings != nil {
		t.Fatalf("Parse(\"\") = %v, %v, %v", rows, warnings, err)
	}
}
