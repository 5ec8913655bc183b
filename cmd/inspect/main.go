package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pmx-renderer/internal/mesh"
	"pmx-renderer/internal/pmx"
	"pmx-renderer/internal/texture"
)

func main() {
	verbose := flag.Bool("v", false, "Also list every material's colors and flags")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	failed := false
	for _, arg := range flag.Args() {
		m, err := pmx.ParseFile(arg)
		if err != nil {
			log.Error().Err(err).Str("file", arg).Msg("parse failed")
			failed = true
			continue
		}
		printModel(arg, m, *verbose)
	}
	if failed {
		os.Exit(1)
	}
}

func printModel(path string, m *pmx.Model, verbose bool) {
	h := m.Header
	g := m.Globals
	fmt.Printf("\n=== %s ===\n", path)
	fmt.Printf("Signature %q  version %.1f  globals %d bytes\n", h.Signature[:], h.Version, len(h.RawGlobals))
	fmt.Printf("Name      %s / %s\n", h.NameLocal, h.NameUniversal)
	if c := firstLine(h.CommentLocal); c != "" {
		fmt.Printf("Comment   %s\n", c)
	}
	fmt.Printf("Encoding  %v  vec4 %d  index sizes: vertex %d texture %d material %d bone %d morph %d rigid %d\n",
		g.TextEncoding, g.AdditionalVec4Count,
		g.VertexIndexSize, g.TextureIndexSize, g.MaterialIndexSize,
		g.BoneIndexSize, g.MorphIndexSize, g.RigidBodyIndexSize)
	fmt.Printf("Counts    vertices %d  triangles %d  textures %d  materials %d\n",
		len(m.Vertices), len(m.Surfaces), len(m.Textures), len(m.Materials))

	// Weight deform histogram
	hist := make(map[pmx.DeformType]int)
	for _, v := range m.Vertices {
		hist[v.Deform.Type()]++
	}
	types := make([]pmx.DeformType, 0, len(hist))
	for t := range hist {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	fmt.Print("Deforms  ")
	for _, t := range types {
		fmt.Printf(" %v=%d", t, hist[t])
	}
	fmt.Println()

	built, err := mesh.Build(m, filepath.Dir(path))
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("mesh build failed")
	} else {
		lo, hi := built.Bounds()
		fmt.Printf("Bounds    [%.2f %.2f %.2f] .. [%.2f %.2f %.2f]\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}

	// Texture table, checked against the model's directory
	idx := texture.BuildIndex(filepath.Dir(path))
	fmt.Println("--- textures ---")
	for i, t := range m.Textures {
		status := "MISSING"
		if p, ok := idx.ResolvePath(t); ok {
			status = p
		}
		fmt.Printf("  [%d] %s → %s\n", i, t, status)
	}

	fmt.Println("--- materials ---")
	for i, mat := range m.Materials {
		s := m.Submeshes[i]
		tex := "-"
		if p, ok := m.Texture(mat.TextureIndex); ok {
			tex = p
		}
		fmt.Printf("  [%d] %-20s indices [%d, %d) triangles %d  texture %s\n",
			i, mat.NameLocal, s.Start, s.End, s.Len()/3, tex)
		if verbose {
			fmt.Printf("       diffuse %v  specular %v^%.1f  ambient %v  flags %08b  blend %v  toon %#v\n",
				mat.Diffuse, mat.Specular, mat.SpecularStrength, mat.Ambient,
				uint8(mat.Flags), mat.EnvironmentBlend, mat.Toon)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
