// Command imageprep converts images into baseline JPEGs sized and compressed
// for D-STAR image transfer: 640x480, never progressive, under 200 KB,
// optionally stamped with the operator's callsign.
//
// Usage:
//
//	imageprep [flags] input        convert a file or a folder of images
//	imageprep -watch [flags] dir   convert files as they appear in dir
//	imageprep -serve [flags]       run the HTTP conversion endpoint
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dstar-tools/imageprep/api"
	"github.com/dstar-tools/imageprep/batch"
	"github.com/dstar-tools/imageprep/config"
	"github.com/dstar-tools/imageprep/encoder"
	"github.com/dstar-tools/imageprep/images"
	"github.com/dstar-tools/imageprep/prep"
	"github.com/dstar-tools/imageprep/watermark"
)

const (
	// ServerReadTimeout is the HTTP server read timeout.
	ServerReadTimeout = 15 * time.Second
	// ServerWriteTimeout is the HTTP server write timeout.
	ServerWriteTimeout = 15 * time.Second
	// ServerIdleTimeout is the HTTP server idle timeout.
	ServerIdleTimeout = 60 * time.Second
	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	// Optional .env for the server deployment; absence is fine.
	_ = godotenv.Load()

	var (
		configPath string
		outDir     string
		sizeStr    string
		modeStr    string
		maxKB      int
		sharpen    float64
		wmIdentity string
		wmCaption  string
		prefix     string
		suffix     string
		workers    int
		watchMode  bool
		serveMode  bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&outDir, "out", "", "Output folder (default: OUT)")
	flag.StringVar(&sizeStr, "size", "", "Target size like 640x480 (default)")
	flag.StringVar(&modeStr, "mode", "", "Resize mode: cover=crop, contain=letterbox, exact=distort (default cover)")
	flag.IntVar(&maxKB, "max-kb", 0, "Max file size in KB (default 200)")
	flag.Float64Var(&sharpen, "sharpen", 0, "Unsharp mask amount after resize, 0 disables")
	flag.StringVar(&wmIdentity, "watermark", "", "Watermark text, use | for 2 lines (e.g. K0PRA|Parker, Colorado)")
	flag.StringVar(&wmCaption, "caption", "", "Optional caption line (landmark, elevation, event name)")
	flag.StringVar(&prefix, "prefix", "", "Prefix added to output filename")
	flag.StringVar(&suffix, "suffix", "", "Suffix added to output filename")
	flag.IntVar(&workers, "workers", 0, "Concurrent conversions in batch mode (default 1)")
	flag.BoolVar(&watchMode, "watch", false, "Watch the input folder, converting files as they appear")
	flag.BoolVar(&serveMode, "serve", false, "Run the HTTP conversion service instead of converting files")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Command line beats config file.
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if sizeStr != "" {
		cfg.Image.Size = sizeStr
	}
	if modeStr != "" {
		cfg.Image.Mode = modeStr
	}
	if maxKB > 0 {
		cfg.Image.MaxKB = maxKB
	}
	if sharpen > 0 {
		cfg.Image.Sharpen = float32(sharpen)
	}
	if wmIdentity != "" {
		cfg.Watermark.Identity = wmIdentity
	}
	if wmCaption != "" {
		cfg.Watermark.Caption = wmCaption
	}
	if prefix != "" {
		cfg.Output.Prefix = prefix
	}
	if suffix != "" {
		cfg.Output.Suffix = suffix
	}
	if workers > 0 {
		cfg.Batch.Workers = workers
	}

	opts, wm, err := buildPipeline(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if serveMode {
		runServer(cfg, opts, wm)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image file or folder>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	processor := batch.New(batch.Options{
		OutDir:    cfg.Output.Dir,
		Prefix:    cfg.Output.Prefix,
		Suffix:    cfg.Output.Suffix,
		Workers:   cfg.Batch.Workers,
		Prep:      opts,
		Watermark: wm,
	})

	if watchMode {
		runWatch(processor, input)
		return
	}

	info, err := os.Stat(input)
	if err != nil {
		log.Fatalf("Input not found: %s", input)
	}

	if info.IsDir() {
		summary, err := processor.Dir(input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Done: %d converted, %d failed", len(summary.Results), len(summary.Failures))
		if summary.Failed() {
			os.Exit(1)
		}
		return
	}

	if !images.IsSupportedPath(input) {
		log.Fatalf("Unsupported image type: %s", input)
	}
	if _, err := processor.File(input); err != nil {
		log.Fatal(err)
	}
}

// buildPipeline translates the config into conditioner options and a
// watermark spec.
func buildPipeline(cfg *config.Config) (prep.Options, watermark.Spec, error) {
	width, height, err := config.ParseSize(cfg.Image.Size)
	if err != nil {
		return prep.Options{}, watermark.Spec{}, err
	}
	mode, err := images.ParseFitMode(cfg.Image.Mode)
	if err != nil {
		return prep.Options{}, watermark.Spec{}, err
	}
	if cfg.Image.MaxKB <= 0 {
		return prep.Options{}, watermark.Spec{}, fmt.Errorf("max-kb must be a positive number")
	}

	budget := encoder.DefaultBudget()
	budget.MaxBytes = cfg.Image.MaxKB * 1024

	opts := prep.Options{
		Width:   width,
		Height:  height,
		Mode:    mode,
		Sharpen: cfg.Image.Sharpen,
		Budget:  budget,
	}
	wm := watermark.Spec{
		Identity: cfg.Watermark.Identity,
		Caption:  cfg.Watermark.Caption,
	}
	return opts, wm, nil
}

// runWatch converts files as they appear in the input directory until
// interrupted.
func runWatch(processor *batch.Processor, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Fatalf("Watch mode needs a folder, got: %s", dir)
	}

	watcher, err := batch.NewWatcher(processor, dir)
	if err != nil {
		log.Fatal(err)
	}
	if err := watcher.Start(); err != nil {
		log.Fatal(err)
	}
	defer watcher.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Stopping watcher")
}

// runServer starts the HTTP conversion service with graceful shutdown.
func runServer(cfg *config.Config, opts prep.Options, wm watermark.Spec) {
	apiConfig := &api.Config{
		Port:        cfg.Server.Port,
		MaxFileSize: cfg.Server.MaxFileSize,
		TempDir:     cfg.Server.TempDir,
		Prep:        opts,
		Watermark:   wm,
	}

	r := gin.Default()
	api.SetupRoutes(r, apiConfig)

	srv := &http.Server{
		Addr:         ":" + apiConfig.Port,
		Handler:      r,
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}

	go func() {
		log.Printf("Listening on :%s", apiConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
