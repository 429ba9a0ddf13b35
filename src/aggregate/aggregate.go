// Package aggregate works on the per-institution metadata directory: one CSV
// per institution, named after it.
package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Columns is the column order of the combined file.
var Columns = []string{
	"institution", "id", "secret", "title", "description",
	"date_taken", "date_uploaded", "latitude", "longitude",
	"comments", "size", "image_url", "notes", "tags",
}

// Institutions lists the institution names found in dir, sorted.
func Institutions(dir string) ([]string, error) {
	files, err := csvFiles(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, institutionOf(f))
	}
	sort.Strings(names)
	return names, nil
}

type Summary struct {
	Files int
	Rows  int
}

// Combine concatenates every CSV in dir into out, tagging each row with the
// institution taken from its file name.
func Combine(dir string, out io.Writer) (Summary, error) {
	var sum Summary

	files, err := csvFiles(dir)
	if err != nil {
		return sum, err
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(Columns); err != nil {
		return sum, err
	}

	for _, path := range files {
		n, err := appendFile(writer, path)
		if err != nil {
			return sum, fmt.Errorf("aggregate %s: %w", path, err)
		}
		sum.Files++
		sum.Rows += n
	}

	writer.Flush()
	return sum, writer.Error()
}

// CombineFile writes the combined CSV to path, creating its directory.
func CombineFile(dir, path string) (Summary, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Summary{}, err
	}
	file, err := os.Create(path)
	if err != nil {
		return Summary{}, err
	}
	defer file.Close()

	sum, err := Combine(dir, file)
	if err != nil {
		return sum, err
	}
	return sum, file.Close()
}

func appendFile(writer *csv.Writer, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimPrefix(name, "\ufeff")] = i
	}

	institution := institutionOf(path)
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}

		out := make([]string, len(Columns))
		for i, col := range Columns {
			if col == "institution" {
				out[i] = institution
				continue
			}
			if j, ok := index[col]; ok && j < len(record) {
				out[i] = record[j]
			}
		}
		if err := writer.Write(out); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

func csvFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func institutionOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
