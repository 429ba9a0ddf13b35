package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RateLimitCode is the API error code answered when calls come too fast.
const RateLimitCode = 201

const photoExtras = "description,date_upload,date_taken,geo,tags,o_dims,url_o,url_c,license,owner_name,views"

// APIError is a {"stat":"fail"} answer from the REST endpoint.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d: %s", e.Method, e.Code, e.Message)
}

// text decodes the loosely typed fields of the API: plain strings, numbers,
// null and {"_content": "..."} objects all become a string.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	case data[0] == '{':
		var c struct {
			Content text `json:"_content"`
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*t = c.Content
	default:
		*t = text(data)
	}
	return nil
}

type Institution struct {
	NSID string `json:"nsid"`
	Name text   `json:"name"`
}

type Photo struct {
	ID          text `json:"id"`
	Secret      text `json:"secret"`
	Title       text `json:"title"`
	Description text `json:"description"`
	DateTaken   text `json:"datetaken"`
	DateUpload  text `json:"dateupload"`
	Latitude    text `json:"latitude"`
	Longitude   text `json:"longitude"`
	OWidth      text `json:"o_width"`
	OHeight     text `json:"o_height"`
	URLO        text `json:"url_o"`
}

// Client calls the Flickr REST endpoint with JSON responses.
type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
}

func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Endpoint: endpoint, APIKey: apiKey, HTTP: httpClient}
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("api_key", c.APIKey)
	q.Set("format", "json")
	q.Set("nojsoncallback", "1")

	target := c.Endpoint
	if strings.Contains(target, "?") {
		target += "&" + q.Encode()
	} else {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %s", method, resp.Status)
	}

	var envelope struct {
		Stat    string `json:"stat"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	if envelope.Stat != "ok" {
		return &APIError{Method: method, Code: envelope.Code, Message: envelope.Message}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	return nil
}

// Institutions lists the Flickr Commons members.
func (c *Client) Institutions(ctx context.Context) ([]Institution, error) {
	var out struct {
		Institutions struct {
			Institution []Institution `json:"institution"`
		} `json:"institutions"`
	}
	if err := c.call(ctx, "flickr.commons.getInstitutions", nil, &out); err != nil {
		return nil, err
	}
	return out.Institutions.Institution, nil
}

// PhotoTotal is the number of public Commons photos of one account.
func (c *Client) PhotoTotal(ctx context.Context, userID string) (int, error) {
	var out struct {
		Photos struct {
			Total text `json:"total"`
		} `json:"photos"`
	}
	params := url.Values{
		"user_id":    {userID},
		"is_commons": {"true"},
		"per_page":   {"1"},
		"page":       {"1"},
		"extras":     {"url_o"},
	}
	if err := c.call(ctx, "flickr.photos.search", params, &out); err != nil {
		return 0, err
	}
	if out.Photos.Total == "" {
		return 0, nil
	}
	total, err := strconv.Atoi(string(out.Photos.Total))
	if err != nil {
		return 0, fmt.Errorf("flickr.photos.search: total %q: %w", out.Photos.Total, err)
	}
	return total, nil
}

// PublicPhotos returns one page of an account's public photos.
func (c *Client) PublicPhotos(ctx context.Context, userID string, page, perPage int) ([]Photo, error) {
	var out struct {
		Photos struct {
			Photo []Photo `json:"photo"`
		} `json:"photos"`
	}
	params := url.Values{
		"user_id":  {userID},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
		"extras":   {photoExtras},
	}
	if err := c.call(ctx, "flickr.people.getPublicPhotos", params, &out); err != nil {
		return nil, err
	}
	return out.Photos.Photo, nil
}
