package types

import "context"

// PhotoRecord is one row of the photo CSV. All values are kept as text.
type PhotoRecord struct {
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Title       string `json:"title"`
	Institution string `json:"institution"`
	ImageURL    string `json:"image_url"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Photo is a record whose coordinates passed the geo filter.
type Photo struct {
	Location    GeoPoint `json:"location"`
	Title       string   `json:"title"`
	Institution string   `json:"institution"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// Row maps header names to the raw field values of one CSV line.
type Row map[string]string

type ParseWarning struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TextFetcher interface {
	FetchText(ctx context.Context, path string) (string, error)
}

type RecordParser interface {
	Parse(text string) ([]Row, []ParseWarning, error)
}

// RecordFromRow picks the consumed columns out of a parsed row.
func RecordFromRow(row Row) PhotoRecord {
	return PhotoRecord{
		Latitude:    row["latitude"],
		Longitude:   row["longitude"],
		Title:       row["title"],
		Institution: row["institution"],
		ImageURL:    row["image_url"],
	}
}
