package handlers

import (
	"bytes"
	"context"
	"net/http"
	"sort"

	"PhotoMap/src/loader"
	"PhotoMap/src/mapview"
	"PhotoMap/src/types"

	"github.com/gin-gonic/gin"
)

type Pipeline interface {
	Run(ctx context.Context) *loader.Result
}

type Handler struct {
	Pipeline Pipeline
	Renderer *mapview.Renderer
}

func NewHandler(p Pipeline, r *mapview.Renderer) *Handler {
	return &Handler{Pipeline: p, Renderer: r}
}

type PhotoList struct {
	Count    int                  `json:"count"`
	Warnings []types.ParseWarning `json:"warnings"`
	Photos   []PhotoItem          `json:"photos"`
}

type PhotoItem struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Title       string  `json:"title"`
	Institution string  `json:"institution"`
	ImageURL    string  `json:"image_url"`
}

type InstitutionList struct {
	Institutions []string `json:"institutions"`
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.MapPage)
	r.GET("/api/photos", h.PhotosAPI)
	r.GET("/api/institutions", h.InstitutionsAPI)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
}

// MapPage renders the map. A failed run still renders the page, carrying the
// error in the status element.
func (h *Handler) MapPage(c *gin.Context) {
	res := h.Pipeline.Run(c.Request.Context())

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, mapview.Page{Status: res.Status, View: res.View}); err != nil {
		c.String(http.StatusInternalServerError, "Error rendering template")
		return
	}

	code := http.StatusOK
	if res.Err != nil {
		code = http.StatusBadGateway
	}
	c.Data(code, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) PhotosAPI(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	list := PhotoList{
		Count:    len(res.Photos),
		Warnings: []types.ParseWarning{},
		Photos:   make([]PhotoItem, 0, len(res.Photos)),
	}
	list.Warnings = append(list.Warnings, res.Warnings...)
	for _, p := range res.Photos {
		list.Photos = append(list.Photos, PhotoItem{
			Lat:         p.Location.Lat,
			Lon:         p.Location.Lon,
			Title:       p.Title,
			Institution: p.Institution,
			ImageURL:    p.ImageURL,
		})
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) InstitutionsAPI(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, InstitutionList{Institutions: Institutions(res.Photos)})
}

func (h *Handler) run(c *gin.Context) (*loader.Result, bool) {
	res := h.Pipeline.Run(c.Request.Context())
	if res.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": res.Status})
		return nil, false
	}
	return res, true
}

// Institutions returns the distinct non-empty institution names, sorted.
func Institutions(photos []types.Photo) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, p := range photos {
		if p.Institution == "" {
			continue
		}
		if _, ok := seen[p.Institution]; ok {
			continue
		}
		seen[p.Institution] = struct{}{}
		names = append(names, p.Institution)
	}
	sort.Strings(names)
	return names
}
