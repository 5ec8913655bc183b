package batch

import (
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/rs/zerolog"

	"pmx-renderer/internal/mesh"
	"pmx-renderer/internal/pmx"
	"pmx-renderer/internal/postprocess"
	"pmx-renderer/internal/raster"
	"pmx-renderer/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	TexResolver texture.Resolver
	Render      raster.Options
	Background  bool // flatten onto white instead of keeping alpha
	Workers     int
	Log         zerolog.Logger
}

// Job is one model file to render.
type Job struct {
	Path string // file to read
	Rel  string // path relative to the model directory, with "/" separators
}

// Result holds the outcome of processing one model.
type Result struct {
	Model     string `json:"model"`
	Image     string `json:"image,omitempty"`
	Name      string `json:"name,omitempty"`
	Vertices  int    `json:"vertices"`
	Triangles int    `json:"triangles"`
	Materials int    `json:"materials"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Discover lists every .pmx file under root, sorted by relative path.
func Discover(root string) ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pmx") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, Job{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", root, err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Rel < jobs[j].Rel })
	return jobs, nil
}

// ImagePath returns the output image path for a job, relative to the
// output directory: the model's relative path with its extension
// replaced by .webp.
func ImagePath(j Job) string {
	return strings.TrimSuffix(j.Rel, filepath.Ext(j.Rel)) + ".webp"
}

// Run processes all jobs using a worker pool. Results are in job order.
func Run(cfg Config, jobs []Job) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Log.Info().
						Int64("done", p).
						Int("total", total).
						Float64("rate", float64(p)/elapsed).
						Msg("progress")
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(cfg Config, job Job) Result {
	res := Result{Model: job.Rel}
	log := cfg.Log.With().Str("model", job.Rel).Logger()

	fail := func(err error) Result {
		res.Error = err.Error()
		log.Warn().Err(err).Msg("render failed")
		return res
	}

	model, err := pmx.ParseFile(job.Path)
	if err != nil {
		return fail(err)
	}
	res.Name = model.Header.NameLocal
	res.Vertices = len(model.Vertices)
	res.Triangles = len(model.Surfaces)
	res.Materials = len(model.Materials)

	m, err := mesh.Build(model, filepath.Dir(job.Path))
	if err != nil {
		return fail(err)
	}
	m.NormalizeNormals()

	img := raster.RenderMesh(m, cfg.TexResolver, cfg.Render)
	if cfg.Render.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Render.Size)
	}
	if cfg.Background {
		img = postprocess.Flatten(img, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}

	rel := ImagePath(job)
	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fail(fmt.Errorf("webp encode: %w", err))
	}

	log.Debug().Int("triangles", res.Triangles).Msg("rendered")
	res.Image = rel
	res.Success = true
	return res
}
