package batch

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/webp"

	"pmx-renderer/internal/raster"
)

// minimalPMX encodes a one-triangle, one-material model with UTF-8 text
// and one-byte indices.
func minimalPMX(name string) []byte {
	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, binary.LittleEndian, v) }
	text := func(s string) {
		w(int32(len(s)))
		b.WriteString(s)
	}
	f32 := func(vs ...float32) {
		for _, v := range vs {
			w(math.Float32bits(v))
		}
	}

	b.WriteString("PMX ")
	f32(2.0)
	b.WriteByte(8)
	b.Write([]byte{1, 0, 1, 1, 1, 1, 1, 1})
	text(name)
	text("")
	text("")
	text("")

	w(int32(3))
	for _, p := range [][2]float32{{0, 1}, {1, -1}, {-1, -1}} {
		f32(p[0], p[1], 0, 0, 0, -1, 0, 0)
		b.WriteByte(0) // BDEF1
		b.WriteByte(0)
		f32(1)
	}

	w(int32(3))
	b.Write([]byte{0, 1, 2})

	w(int32(0))

	w(int32(1))
	text("body")
	text("")
	f32(1, 0, 0, 1)
	f32(0, 0, 0, 5)
	f32(0.5, 0.5, 0.5)
	b.WriteByte(0x01)
	f32(0, 0, 0, 1, 1)
	b.Write([]byte{0xFF, 0xFF, 0, 0, 0xFF})
	text("")
	w(int32(3))

	return b.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "Model.PMX"), nil)
	writeFile(t, filepath.Join(root, "a.pmx"), nil)
	writeFile(t, filepath.Join(root, "a", "tex.png"), nil)
	writeFile(t, filepath.Join(root, "c.pmd"), nil)

	jobs, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	var rels []string
	for _, j := range jobs {
		rels = append(rels, j.Rel)
	}
	if want := []string{"a.pmx", "b/Model.PMX"}; !reflect.DeepEqual(rels, want) {
		t.Errorf("discovered %v, want %v", rels, want)
	}
	if got := ImagePath(jobs[1]); got != "b/Model.webp" {
		t.Errorf("ImagePath = %q", got)
	}

	if _, err := Discover(filepath.Join(root, "missing")); err == nil {
		t.Error("missing root scanned without error")
	}
}

func TestRun(t *testing.T) {
	models := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(models, "miku", "miku.pmx"), minimalPMX("ミク"))
	writeFile(t, filepath.Join(models, "broken.pmx"), []byte("PMX \x00\x00"))

	jobs, err := Discover(models)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{
		OutputDir:  out,
		Render:     raster.Options{Size: 32, Supersample: 2},
		Background: true,
		Workers:    2,
		Log:        zerolog.Nop(),
	}
	results := Run(cfg, jobs)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}

	broken, ok := results[0], results[1]
	if broken.Model != "broken.pmx" || broken.Success || broken.Error == "" {
		t.Errorf("broken result = %+v", broken)
	}
	if !ok.Success || ok.Name != "ミク" || ok.Triangles != 1 || ok.Materials != 1 || ok.Vertices != 3 {
		t.Fatalf("ok result = %+v", ok)
	}
	if ok.Image != "miku/miku.webp" {
		t.Errorf("image = %q", ok.Image)
	}

	f, err := os.Open(filepath.Join(out, "miku", "miku.webp"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := webp.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("preview bounds = %v", img.Bounds())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0xFFFF {
		t.Errorf("background not flattened, alpha = %d", a)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	id := NewRunID()
	results := []Result{
		{Model: "a.pmx", Image: "a.webp", Success: true, Triangles: 12},
		{Model: "b.pmx", Error: "pmx: unexpected end of input"},
	}
	if err := WriteManifest(path, id, results); err != nil {
		t.Fatal(err)
	}

	m, err := ReadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.RunID != id.String() || m.Total != 2 || m.Failed != 1 {
		t.Errorf("manifest = %+v", m)
	}
	if !reflect.DeepEqual(m.Models, results) {
		t.Errorf("models = %+v", m.Models)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := WriteManifest(empty, uuid.Nil, nil); err != nil {
		t.Fatal(err)
	}
	if m, err := ReadManifest(empty); err != nil || m.Models == nil || len(m.Models) != 0 {
		t.Errorf("empty manifest = %+v, %v", m, err)
	}
}
