// Package loader runs the photo map pipeline: fetch, parse, filter, build
// the map view and report a status line.
package loader

import (
	"context"
	"fmt"
	"log"

	"PhotoMap/src/geo"
	"PhotoMap/src/mapview"
	"PhotoMap/src/runlog"
	"PhotoMap/src/types"
)

// CSVPath is resolved against the fetcher's root.
const CSVPath = "metadata_combined/flickr_commons_pictures.csv"

type Loader struct {
	Fetcher types.TextFetcher
	Parser  types.RecordParser
	Status  *mapview.Status
	Logger  *log.Logger
}

func New(fetcher types.TextFetcher, parser types.RecordParser, status *mapview.Status, logger *log.Logger) *Loader {
	return &Loader{Fetcher: fetcher, Parser: parser, Status: status, Logger: logger}
}

// Result is the outcome of one run. Status holds the last status write;
// StatusHistory holds every write in order.
type Result struct {
	RunID         string
	Rows          int
	Photos        []types.Photo
	Warnings      []types.ParseWarning
	View          *mapview.View
	Status        string
	StatusHistory []string
	Err           error
}

func (r *Result) setStatus(s string) {
	r.Status = s
	r.StatusHistory = append(r.StatusHistory, s)
}

// Run executes the pipeline once. It never returns nil; a failed run has Err
// set and its Status replaced by the error message. A view created before the
// failure is kept.
func (l *Loader) Run(ctx context.Context) *Result {
	run := runlog.Begin(l.Logger)
	res := &Result{RunID: run.ID}

	fail := func(err error) *Result {
		res.Err = err
		res.setStatus(l.Status.Failed(err))
		run.FlushError(err)
		return res
	}

	run.Appendf("fetching %s", CSVPath)
	text, err := l.Fetcher.FetchText(ctx, CSVPath)
	if err != nil {
		return fail(err)
	}
	run.Appendf("fetched %d bytes", len(text))

	rows, warnings, err := l.Parser.Parse(text)
	if err != nil {
		return fail(fmt.Errorf("parse CSV: %w", err))
	}
	res.Rows = len(rows)
	res.Warnings = warnings
	if len(warnings) > 0 {
		for _, w := range warnings {
			run.Warnf("CSV parse warning at row %d: %s: %s", w.Row, w.Code, w.Message)
		}
		res.setStatus(l.Status.Warnings(len(warnings)))
	}

	records := make([]types.PhotoRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.RecordFromRow(row))
	}
	res.Photos = geo.Filter(records)
	run.Appendf("%d of %d rows have valid coordinates", len(res.Photos), len(rows))

	res.View = mapview.NewView()
	if err := res.View.AddPhotos(res.Photos); err != nil {
		return fail(fmt.Errorf("build markers: %w", err))
	}

	res.setStatus(l.Status.Loaded(len(res.Photos)))
	run.Success(fmt.Sprintf("%d of %d rows rendered, %d parse warnings", len(res.Photos), len(rows), len(warnings)))
	return res
}
