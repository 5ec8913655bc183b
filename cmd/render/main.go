package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pmx-renderer/internal/batch"
	"pmx-renderer/internal/config"
	"pmx-renderer/internal/raster"
	"pmx-renderer/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Render only first N models for testing")
	modelDir := flag.String("models", "", "Directory scanned for .pmx files")
	outputDir := flag.String("output", "", "Output directory (default: <models>/previews)")
	size := flag.Int("size", 0, "Preview edge in pixels (default: 512)")
	supersample := flag.Int("supersample", 0, "Supersampling factor (default: 2)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	yaw := flag.Float64("yaw", 0, "Turn the model about its vertical axis, degrees")
	pitch := flag.Float64("pitch", 0, "Tilt the model, degrees; negative looks down (default: -5)")
	fov := flag.Float64("fov", 0, "Vertical field of view in degrees; 0 is orthographic")
	background := flag.Bool("background", false, "Flatten previews onto white")
	verbose := flag.Bool("v", false, "Log every model")

	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("loading config")
		}
	}

	// Only flags given on the command line override the file.
	flags := config.Flags{
		ModelDir:    *modelDir,
		OutputDir:   *outputDir,
		RenderSize:  *size,
		Supersample: *supersample,
		Workers:     *workers,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "yaw":
			flags.Yaw = yaw
		case "pitch":
			flags.Pitch = pitch
		case "fov":
			flags.FOV = fov
		case "background":
			flags.Background = background
		}
	})
	cfg.Resolve(flags)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("use -models or config.json")
	}

	jobs, err := batch.Discover(cfg.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Msg("scanning models")
	}
	if *testN > 0 && *testN < len(jobs) {
		jobs = jobs[:*testN]
	}
	if len(jobs) == 0 {
		log.Info().Str("dir", cfg.ModelDir).Msg("no models to render")
		return
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.ModelDir)
	texCache := texture.NewCache(texIndex)

	log.Info().
		Int("models", len(jobs)).
		Int("textures", texIndex.Len()).
		Int("workers", cfg.Workers).
		Str("output", cfg.OutputDir).
		Msg("PMX preview renderer → WebP")

	start := time.Now()
	runID := batch.NewRunID()

	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		TexResolver: texCache,
		Render: raster.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			Yaw:         cfg.Yaw,
			Pitch:       cfg.Pitch,
			FOV:         cfg.FOV,
		},
		Background: cfg.Background,
		Workers:    cfg.Workers,
		Log:        log.With().Str("run", runID.String()).Logger(),
	}

	results := batch.Run(batchCfg, jobs)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("rendered", len(results)-failed).
		Int("failed", failed).
		Int("textures_loaded", texCache.Len()).
		Msg("done")

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Warn().Err(err).Msg("creating output directory")
	}
	if err := batch.WriteManifest(manifestPath, runID, results); err != nil {
		log.Warn().Err(err).Msg("manifest write failed")
	} else {
		log.Info().Str("path", manifestPath).Msg("manifest written")
	}

	if failed > 0 {
		os.Exit(1)
	}
}
