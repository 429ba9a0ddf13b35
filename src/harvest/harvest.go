// Package harvest collects Flickr Commons metadata into one CSV per
// institution: a coverage report against the local files, and a paged,
// resumable download of the rows still missing.
package harvest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fields is the column order of a per-institution metadata file.
var Fields = []string{
	"id", "secret", "title", "description", "date_taken", "date_uploaded",
	"latitude", "longitude", "comments", "size", "image_url", "notes", "tags",
}

const (
	PerPage            = 500
	MaxPages           = 10000
	EmptyPageThreshold = 1000
)

type API interface {
	Institutions(ctx context.Context) ([]Institution, error)
	PhotoTotal(ctx context.Context, userID string) (int, error)
	PublicPhotos(ctx context.Context, userID string, page, perPage int) ([]Photo, error)
}

// Coverage compares one institution on Flickr with its local file.
type Coverage struct {
	Name        string
	NSID        string
	File        string
	FlickrTotal int
	LocalPhotos int
	Coverage    float64
}

type Result struct {
	Name     string
	New      int
	Total    int
	Complete bool
	Err      error
}

type Harvester struct {
	API    API
	Dir    string
	Logger *log.Logger
	// RateLimitWait is how long to pause before retrying a rate limited page.
	RateLimitWait time.Duration
}

func New(api API, dir string, logger *log.Logger) *Harvester {
	if logger == nil {
		logger = log.Default()
	}
	return &Harvester{API: api, Dir: dir, Logger: logger, RateLimitWait: time.Minute}
}

// Status builds the coverage of every institution, lowest coverage first
// and smallest collection first among ties. Institutions whose total cannot
// be read are logged and left out.
func (h *Harvester) Status(ctx context.Context) ([]Coverage, error) {
	institutions, err := h.API.Institutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	var list []Coverage
	for _, inst := range institutions {
		name := string(inst.Name)
		if name == "" {
			name = "unknown"
		}
		total, err := h.API.PhotoTotal(ctx, inst.NSID)
		if err != nil {
			h.Logger.Printf("ERROR %s: %v", name, err)
			continue
		}

		file := filepath.Join(h.Dir, FileName(name))
		ids, err := photoIDs(file)
		if err != nil {
			return nil, err
		}

		c := Coverage{Name: name, NSID: inst.NSID, File: file, FlickrTotal: total, LocalPhotos: len(ids), Coverage: 1}
		if total > 0 {
			c.Coverage = float64(len(ids)) / float64(total)
		}
		list = append(list, c)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Coverage != list[j].Coverage {
			return list[i].Coverage < list[j].Coverage
		}
		return list[i].FlickrTotal < list[j].FlickrTotal
	})
	return list, nil
}

// WriteReport prints the coverage table.
func WriteReport(w io.Writer, list []Coverage) {
	p := message.NewPrinter(language.English)
	for i, c := range list {
		p.Fprintf(w, "%2d. %-50s %6.1f%% (%d/%d)\n", i+1, c.Name, c.Coverage*100, c.LocalPhotos, c.FlickrTotal)
	}
}

// Download fetches the missing rows of each institution in order. A failure
// on one institution is recorded in its Result and the next one proceeds;
// only context cancellation stops the whole run.
func (h *Harvester) Download(ctx context.Context, list []Coverage) []Result {
	results := make([]Result, 0, len(list))
	for i, c := range list {
		h.Logger.Printf("[%d/%d] downloading %s (%s) into %s", i+1, len(list), c.Name, c.NSID, c.File)
		res := h.downloadOne(ctx, c)
		if res.Err != nil {
			h.Logger.Printf("%s: %v", c.Name, res.Err)
		}
		state := "PARTIAL"
		if res.Complete {
			state = "COMPLETE"
		}
		h.Logger.Printf("%s %s: %d photos (%d new)", state, c.Name, res.Total, res.New)
		results = append(results, res)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

func (h *Harvester) downloadOne(ctx context.Context, c Coverage) Result {
	res := Result{Name: c.Name}

	if err := ensureHeader(c.File); err != nil {
		res.Err = err
		return res
	}
	seen, err := photoIDs(c.File)
	if err != nil {
		res.Err = err
		return res
	}
	res.Total = len(seen)
	if len(seen) >= c.FlickrTotal {
		res.Complete = true
		return res
	}

	emptyPages := 0
	for page := 1; page <= MaxPages && emptyPages < EmptyPageThreshold; {
		photos, err := h.API.PublicPhotos(ctx, c.NSID, page, PerPage)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == RateLimitCode {
				h.Logger.Printf("rate limited, waiting %s", h.RateLimitWait)
				if err := sleep(ctx, h.RateLimitWait); err != nil {
					res.Err = err
					break
				}
				continue
			}
			res.Err = err
			break
		}
		if len(photos) == 0 {
			break
		}

		var rows [][]string
		for _, p := range photos {
			id := string(p.ID)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, Row(p))
		}

		if len(rows) == 0 {
			emptyPages++
		} else {
			emptyPages = 0
			if err := appendRows(c.File, rows); err != nil {
				res.Err = err
				break
			}
			res.New += len(rows)
		}
		page++
	}

	res.Total = len(seen)
	res.Complete = res.Total >= c.FlickrTotal
	return res
}

// Row is the metadata line of one photo, in Fields order.
func Row(p Photo) []string {
	width, height := string(p.OWidth), string(p.OHeight)
	if width == "" {
		width = "N/A"
	}
	if height == "" {
		height = "N/A"
	}
	return []string{
		string(p.ID),
		string(p.Secret),
		string(p.Title),
		string(p.Description),
		string(p.DateTaken),
		string(p.DateUpload),
		string(p.Latitude),
		string(p.Longitude),
		"N/A",
		width + "x" + height,
		string(p.URLO),
		"N/A",
		"N/A",
	}
}

// FileName keeps letters, digits, spaces, '-' and '_' of an institution
// name and drops trailing spaces.
func FileName(institution string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, institution)
	return strings.TrimRight(cleaned, " ") + ".csv"
}

func photoIDs(path string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ids, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	col := -1
	for i, name := range header {
		if name == "id" {
			col = i
		}
	}
	if col < 0 {
		return ids, nil
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if col < len(record) && record[col] != "" {
			ids[record[col]] = struct{}{}
		}
	}
	return ids, nil
}

// ensureHeader writes a fresh header when the file is missing or has no
// data rows.
func ensureHeader(path string) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if strings.Count(strings.TrimRight(string(data), "\r\n"), "\n") >= 1 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.Write(Fields); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func appendRows(path string, rows [][]string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
