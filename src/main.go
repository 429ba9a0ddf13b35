package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"PhotoMap/src/aggregate"
	"PhotoMap/src/config"
	"PhotoMap/src/csvparse"
	"PhotoMap/src/deploy"
	"PhotoMap/src/fetch"
	"PhotoMap/src/handlers"
	"PhotoMap/src/harvest"
	"PhotoMap/src/loader"
	"PhotoMap/src/mapview"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/acme/autocert"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	buildOut := buildCmd.String("out", "public", "output directory for the static map page")

	deployCmd := flag.NewFlagSet("deploy", flag.ExitOnError)
	deployBucket := deployCmd.String("bucket", "", "S3 bucket name to deploy to")
	deployOut := deployCmd.String("out", "public", "output directory for the static map page")

	aggregateCmd := flag.NewFlagSet("aggregate", flag.ExitOnError)
	aggregateOut := aggregateCmd.String("out", filepath.Join(cfg.DataRoot, filepath.FromSlash(loader.CSVPath)), "combined CSV to write")

	harvestCmd := flag.NewFlagSet("harvest", flag.ExitOnError)
	harvestMode := harvestCmd.String("mode", "status", "status prints coverage, download fetches missing rows")
	harvestLimit := harvestCmd.Int("limit", 0, "download at most this many institutions, lowest coverage first (0 = all)")

	if len(os.Args) < 2 {
		runServe(cfg)
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe(cfg)
	case "build":
		buildCmd.Parse(os.Args[2:])
		runBuild(cfg, *buildOut)
	case "deploy":
		deployCmd.Parse(os.Args[2:])
		if *deployBucket == "" {
			fmt.Println("Error: S3 bucket name is required for deploy command. Use --bucket <bucket-name>")
			os.Exit(1)
		}
		runDeploy(cfg, *deployBucket, *deployOut)
	case "aggregate":
		aggregateCmd.Parse(os.Args[2:])
		runAggregate(cfg, *aggregateOut)
	case "harvest":
		harvestCmd.Parse(os.Args[2:])
		runHarvest(cfg, *harvestMode, *harvestLimit)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Usage: photomap [command]")
		fmt.Println("Commands:")
		fmt.Println("  serve     - Serves the photo map (default)")
		fmt.Println("  build     - Writes the photo map as a static page")
		fmt.Println("  deploy    - Builds and uploads the static page to an S3 bucket")
		fmt.Println("              Usage: photomap deploy --bucket <bucket-name>")
		fmt.Println("  aggregate - Combines the per-institution metadata CSVs")
		fmt.Println("  harvest   - Reports or downloads Flickr Commons metadata")
		fmt.Println("              Usage: photomap harvest --mode status|download [--limit N]")
		os.Exit(1)
	}
}

func newLoader(cfg *config.Config) *loader.Loader {
	status, err := mapview.NewStatus(cfg.Locale)
	if err != nil {
		log.Fatal(err)
	}
	fetcher := fetch.New(cfg.DataRoot, &http.Client{Timeout: cfg.FetchTimeout})
	return loader.New(fetcher, csvparse.New(csvparse.DefaultOptions()), status, log.Default())
}

func runServe(cfg *config.Config) {
	renderer, err := mapview.LoadTemplate()
	if err != nil {
		log.Fatal(err)
	}

	router := gin.Default()
	handlers.NewHandler(newLoader(cfg), renderer).Register(router)

	if cfg.Domain != "" {
		serveWithDomain(cfg, router)
		return
	}

	log.Println("PHOTOMAP_DOMAIN not set, serving plain HTTP")
	log.Printf("Server started at %s", cfg.Addr)
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

// serveWithDomain answers ACME challenges and redirects on :80, and serves
// HTTPS on :443 with certificates from Let's Encrypt.
func serveWithDomain(cfg *config.Config, handler http.Handler) {
	certMgr := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(cfg.CertDir),
		HostPolicy: autocert.HostWhitelist(cfg.Domain, "www."+cfg.Domain),
	}

	go func() {
		redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://"+cfg.Domain+r.URL.RequestURI(), http.StatusMovedPermanently)
		})
		log.Printf("HTTP server (ACME+redirect) on :80")
		srv := &http.Server{Addr: ":80", Handler: certMgr.HTTPHandler(redirect), ReadHeaderTimeout: 10 * time.Second}
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Printf("HTTPS server for %s on :443", cfg.Domain)
	srv := &http.Server{
		Addr:              ":443",
		Handler:           handler,
		TLSConfig:         certMgr.TLSConfig(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServeTLS("", ""); err != nil {
		log.Fatal(err)
	}
}

func runBuild(cfg *config.Config, outputDir string) {
	fmt.Println("Starting static map generation...")

	renderer, err := mapview.LoadTemplate()
	if err != nil {
		log.Fatal(err)
	}

	res := newLoader(cfg).Run(context.Background())
	if res.Err != nil {
		log.Fatalf("Failed to load photos: %v", res.Err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	outputPath := filepath.Join(outputDir, "index.html")
	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file %s: %v", outputPath, err)
	}
	defer file.Close()

	if err := renderer.Render(file, mapview.Page{Status: res.Status, View: res.View}); err != nil {
		log.Fatalf("Failed to render %s: %v", outputPath, err)
	}
	fmt.Printf("Generated %s: %s\n", outputPath, res.Status)
}

func runDeploy(cfg *config.Config, bucket, outputDir string) {
	runBuild(cfg, outputDir)

	ctx := context.Background()
	uploader, err := deploy.NewS3Uploader(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Starting deployment to S3 bucket: %s...\n", bucket)
	n, err := deploy.Site(ctx, uploader, bucket, outputDir)
	if err != nil {
		log.Fatalf("Deployment failed: %v", err)
	}
	log.Printf("Deployment complete! %d files uploaded", n)
}

func runAggregate(cfg *config.Config, out string) {
	institutions, err := aggregate.Institutions(cfg.MetadataDir)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Found %d institutions in %s\n", len(institutions), cfg.MetadataDir)

	sum, err := aggregate.CombineFile(cfg.MetadataDir, out)
	if err != nil {
		log.Fatalf("Failed to aggregate metadata: %v", err)
	}
	fmt.Printf("Aggregated %d institutions into %s\n", sum.Files, out)
	fmt.Printf("Total pictures: %d\n", sum.Rows)
}

func runHarvest(cfg *config.Config, mode string, limit int) {
	if mode != "status" && mode != "download" {
		fmt.Printf("Unknown harvest mode: %s (want status or download)\n", mode)
		os.Exit(1)
	}
	if err := cfg.RequireFlickr(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := harvest.NewClient(cfg.FlickrEndpoint, cfg.FlickrAPIKey, &http.Client{Timeout: cfg.FetchTimeout})
	h := harvest.New(client, cfg.MetadataDir, log.Default())

	list, err := h.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read coverage: %v", err)
	}
	harvest.WriteReport(os.Stdout, list)
	if mode == "status" {
		return
	}

	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	results := h.Download(ctx, list)
	complete := 0
	for _, r := range results {
		if r.Complete {
			complete++
		}
	}
	fmt.Printf("Harvested %d institutions, %d complete\n", len(results), complete)
}
