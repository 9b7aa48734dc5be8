package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorustyt/navbind/common/logs"
	"github.com/gorustyt/navbind/debug_utils"
	"github.com/gorustyt/navbind/generators"
	"github.com/gorustyt/navbind/navmesh"
	"github.com/gorustyt/navbind/serdes"
	"github.com/gorustyt/navbind/store"
	"go.uber.org/zap"
)

type buildOptions struct {
	objPath    string
	configPath string
	mode       string
	outPath    string
	pngPath    string
	pngSize    int
	dumpObj    string
	dbPath     string
	name       string
}

func handleBuild(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var opts buildOptions
	var lf logFlags
	fs.StringVar(&opts.objPath, "obj", "", "Input OBJ file (required)")
	fs.StringVar(&opts.configPath, "config", "", "Recast config JSON file (defaults are used when empty)")
	fs.StringVar(&opts.mode, "mode", "solo", "Build mode: solo, tiled or tilecache")
	fs.StringVar(&opts.outPath, "out", "", "Write the exported navmesh to this file")
	fs.StringVar(&opts.pngPath, "png", "", "Render a top down PNG of the navmesh")
	fs.IntVar(&opts.pngSize, "png-size", 512, "PNG width and height in pixels")
	fs.StringVar(&opts.dumpObj, "dump-obj", "", "Write the polygon mesh as OBJ (solo mode only)")
	fs.StringVar(&opts.dbPath, "db", "", "Also save the export into this sqlite database")
	fs.StringVar(&opts.name, "name", "", "Name stored with -db (defaults to the OBJ file name)")
	lf.register(fs)
	if err := parseFlags(fs, &lf, args); err != nil {
		return err
	}
	if opts.objPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -obj flag is required")
		fs.Usage()
		return errUsage
	}
	return runBuild(context.Background(), opts, stdout)
}

type builtMesh struct {
	kind      store.Kind
	nav       *navmesh.NavMesh
	tileCache *navmesh.TileCache
	inter     *generators.Intermediates
}

func generate(opts buildOptions, cfg generators.RecastConfig, mesh *objMesh) (*builtMesh, error) {
	keep := opts.dumpObj != ""
	switch store.Kind(opts.mode) {
	case store.KindSolo:
		res := generators.GenerateSoloNavMesh(mesh.verts, mesh.tris, cfg, keep)
		if !res.Success {
			return nil, res.Error
		}
		return &builtMesh{kind: store.KindSolo, nav: res.NavMesh, inter: res.Intermediates}, nil
	case store.KindTiled:
		res := generators.GenerateTiledNavMesh(mesh.verts, mesh.tris, cfg, false)
		if !res.Success {
			return nil, res.Error
		}
		return &builtMesh{kind: store.KindTiled, nav: res.NavMesh}, nil
	case store.KindTileCache:
		res := generators.GenerateTileCache(mesh.verts, mesh.tris, cfg, false)
		if !res.Success {
			return nil, res.Error
		}
		return &builtMesh{kind: store.KindTileCache, nav: res.NavMesh, tileCache: res.TileCache}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
}

func runBuild(ctx context.Context, opts buildOptions, stdout io.Writer) error {
	if opts.dumpObj != "" && opts.mode != string(store.KindSolo) {
		return errors.New("-dump-obj needs -mode solo")
	}
	cfg := generators.DefaultRecastConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = generators.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	raw, err := loadObjFile(opts.objPath)
	if err != nil {
		return err
	}
	mesh, err := raw.merged()
	if err != nil {
		return fmt.Errorf("%s: %w", opts.objPath, err)
	}
	logs.L().Info("loaded mesh", zap.String("obj", opts.objPath),
		zap.Int("verts", raw.vertCount()), zap.Int("mergedVerts", mesh.vertCount()),
		zap.Int("tris", mesh.triCount()))

	built, err := generate(opts, cfg, mesh)
	if err != nil {
		return fmt.Errorf("build %s navmesh: %w", opts.mode, err)
	}
	fmt.Fprintf(stdout, "built %s navmesh: %d tiles\n", built.kind, built.nav.GetTileCount())

	data := serdes.ExportNavMesh(built.nav, built.tileCache)
	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", opts.outPath, len(data))
	}
	if opts.pngPath != "" {
		if err := writePNG(opts.pngPath, built, opts.pngSize); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", opts.pngPath)
	}
	if opts.dumpObj != "" {
		if err := writeFile(opts.dumpObj, func(w io.Writer) error {
			return debug_utils.DuDumpPolyMeshToObj(built.inter.PolyMesh, w)
		}); err != nil {
			return fmt.Errorf("dump obj: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", opts.dumpObj)
	}
	if opts.dbPath != "" {
		name := opts.name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(opts.objPath), filepath.Ext(opts.objPath))
		}
		s, err := store.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.Save(ctx, name, built.kind, built.nav.GetTileCount(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "saved %s as %s\n", name, id)
	}
	return nil
}

func writePNG(path string, built *builtMesh, size int) error {
	dd := debug_utils.NewPrimitiveCollector()
	debug_utils.DuDebugDrawNavMesh(dd, built.nav.Raw, debug_utils.DU_DRAWNAVMESH_COLOR_TILES)
	if built.tileCache != nil {
		debug_utils.DuDebugDrawTileCacheObstacles(dd, built.tileCache.Raw)
	}
	bmin, bmax, ok := dd.Bounds()
	if !ok {
		return errors.New("render png: navmesh has no geometry")
	}
	return writeFile(path, func(w io.Writer) error {
		return debug_utils.RenderTopDownPNG(w, dd.Primitives, bmin, bmax, size)
	})
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
