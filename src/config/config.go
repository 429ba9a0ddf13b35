package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DataRoot     string
	MetadataDir  string
	Locale       string
	Domain       string
	CertDir      string
	FetchTimeout time.Duration

	FlickrAPIKey    string
	FlickrAPISecret string
	FlickrEndpoint  string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv("PHOTOMAP_ADDR", ":8888"),
		DataRoot:    getEnv("PHOTOMAP_DATA_ROOT", "."),
		MetadataDir: getEnv("PHOTOMAP_METADATA_DIR", "metadata"),
		Locale:      getEnv("PHOTOMAP_LOCALE", "en-US"),
		Domain:      os.Getenv("PHOTOMAP_DOMAIN"),
		CertDir:     getEnv("PHOTOMAP_CERT_DIR", "certs"),

		FlickrAPIKey:    os.Getenv("FLICKR_API_KEY"),
		FlickrAPISecret: os.Getenv("FLICKR_API_SECRET"),
		FlickrEndpoint:  getEnv("FLICKR_ENDPOINT", "https://api.flickr.com/services/rest/"),
	}

	timeout, err := time.ParseDuration(getEnv("PHOTOMAP_FETCH_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PHOTOMAP_FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout
	return cfg, nil
}

// RequireFlickr reports whether the Flickr credentials needed by the
// harvester are present.
func (c *Config) RequireFlickr() error {
	if c.FlickrAPIKey == "" || c.FlickrAPISecret == "" {
		return errors.New("FLICKR_API_KEY and FLICKR_API_SECRET must be set in .env")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
