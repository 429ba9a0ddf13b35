// Package mapview builds the Leaflet view model for a set of photos and
// renders it into the map page.
package mapview

import (
	"bytes"
	"html/template"

	"PhotoMap/src/geo"
	"PhotoMap/src/types"
)

const (
	TileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	Attribution = `© <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

	InitialZoom      = 2
	MaxClusterRadius = 50
	FitPadding       = 20

	NoTitle            = "No title"
	UnknownInstitution = "Unknown"
)

const (
	pinHTML    = `<div style="background: #ff0000; width: 20px; height: 20px; border-radius: 50% 50% 50% 50% / 60% 60% 40% 40%; border: 3px solid #fff; box-shadow: 0 2px 6px rgba(0,0,0,0.3);"></div>`
	badgeStyle = `background: #ff4444; color: white; border-radius: 50%; width: 30px; height: 30px; line-height: 30px; text-align: center; border: 3px solid #fff; box-shadow: 0 2px 6px rgba(0,0,0,0.3); font-weight: bold;`
)

type Icon struct {
	ClassName string `json:"className,omitempty"`
	HTML      string `json:"html,omitempty"`
	Size      [2]int `json:"iconSize"`
	Anchor    [2]int `json:"iconAnchor"`
}

type Cluster struct {
	MaxRadius  int    `json:"maxClusterRadius"`
	BadgeStyle string `json:"badgeStyle"`
	Icon       Icon   `json:"icon"`
}

type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// View is everything the page script needs to mount the map.
type View struct {
	Center      types.GeoPoint `json:"center"`
	Zoom        int            `json:"zoom"`
	TileURL     string         `json:"tileUrl"`
	Attribution string         `json:"attribution"`
	Pin         Icon           `json:"pin"`
	Cluster     Cluster        `json:"cluster"`
	Markers     []Marker       `json:"markers"`
	// FitBounds is nil when there is nothing to fit.
	FitBounds *geo.Bounds `json:"fitBounds"`
	Padding   [2]int      `json:"padding"`
}

var popupTemplate = template.Must(template.New("popup").Parse(
	`<div style="font-family: Arial; max-width: 300px;">` +
		`<h3 style="margin: 0 0 10px 0; color: #333;">{{.Title}}</h3>` +
		`<h4 style="margin: 0 0 15px 0; color: #666; font-weight: normal;">{{.Institution}}</h4>` +
		`{{if .ImageURL}}<img src="{{.ImageURL}}" style="max-width: 100%; height: auto; border-radius: 5px;" onerror="this.style.display='none'">{{end}}` +
		`</div>`))

// NewView lays out the initial view: world centered at (0,0), zoom 2.
func NewView() *View {
	return &View{
		Center:      types.GeoPoint{Lat: 0, Lon: 0},
		Zoom:        InitialZoom,
		TileURL:     TileURL,
		Attribution: Attribution,
		Pin: Icon{
			ClassName: "pin-marker",
			HTML:      pinHTML,
			Size:      [2]int{26, 26},
			Anchor:    [2]int{13, 26},
		},
		Cluster: Cluster{
			MaxRadius:  MaxClusterRadius,
			BadgeStyle: badgeStyle,
			Icon: Icon{
				Size:   [2]int{36, 36},
				Anchor: [2]int{18, 18},
			},
		},
		Markers: []Marker{},
	}
}

// AddPhotos appends one marker per photo and, when at least one marker
// exists, sets the bounds the map should fit.
func (v *View) AddPhotos(photos []types.Photo) error {
	for _, p := range photos {
		popup, err := PopupHTML(p)
		if err != nil {
			return err
		}
		v.Markers = append(v.Markers, Marker{Lat: p.Location.Lat, Lon: p.Location.Lon, Popup: popup})
	}
	if len(v.Markers) > 0 {
		v.FitBounds = geo.BoundsOf(photos)
		v.Padding = [2]int{FitPadding, FitPadding}
	}
	return nil
}

// Build is NewView followed by AddPhotos.
func Build(photos []types.Photo) (*View, error) {
	v := NewView()
	if err := v.AddPhotos(photos); err != nil {
		return nil, err
	}
	return v, nil
}

// PopupHTML renders the popup body of one photo. Text is escaped; the image
// is omitted when the photo has no URL and hides itself if it fails to load.
func PopupHTML(p types.Photo) (string, error) {
	data := struct {
		Title       string
		Institution string
		ImageURL    string
	}{
		Title:       p.Title,
		Institution: p.Institution,
		ImageURL:    p.ImageURL,
	}
	if data.Title == "" {
		data.Title = NoTitle
	}
	if data.Institution == "" {
		data.Institution = UnknownInstitution
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
