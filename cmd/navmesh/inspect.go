package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/gorustyt/navbind/serdes"
	"github.com/gorustyt/navbind/store"
)

// setSource selects an exported set, either a file or a record in a store.
type setSource struct {
	in     string
	dbPath string
	id     string
}

func (s *setSource) register(fs *flag.FlagSet) {
	fs.StringVar(&s.in, "in", "", "Exported navmesh file")
	fs.StringVar(&s.dbPath, "db", "", "sqlite database to read from instead of -in")
	fs.StringVar(&s.id, "id", "", "Record id in -db")
}

func (s *setSource) load(ctx context.Context) (serdes.ImportResult, error) {
	var data []byte
	switch {
	case s.in != "":
		var err error
		if data, err = os.ReadFile(s.in); err != nil {
			return serdes.ImportResult{}, err
		}
	case s.dbPath != "":
		id, err := uuid.Parse(s.id)
		if err != nil {
			return serdes.ImportResult{}, fmt.Errorf("-id: %w", err)
		}
		st, err := store.Open(s.dbPath)
		if err != nil {
			return serdes.ImportResult{}, err
		}
		defer st.Close()
		rec, err := st.Load(ctx, id)
		if err != nil {
			return serdes.ImportResult{}, err
		}
		data = rec.Data
	default:
		return serdes.ImportResult{}, errors.New("one of -in or -db is required")
	}
	res := serdes.ImportNavMesh(data)
	if !res.Success {
		return res, fmt.Errorf("import navmesh: %w", res.Error)
	}
	return res, nil
}

func handleInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var src setSource
	var lf logFlags
	src.register(fs)
	lf.register(fs)
	if err := parseFlags(fs, &lf, args); err != nil {
		return err
	}
	res, err := src.load(context.Background())
	if err != nil {
		return err
	}
	inspect(stdout, res)
	return nil
}

func inspect(w io.Writer, res serdes.ImportResult) {
	nav := res.NavMesh
	p := nav.GetParams()
	kind := "navmesh"
	if res.TileCache != nil {
		kind = "tilecache"
	}
	fmt.Fprintf(w, "set:        %s\n", kind)
	fmt.Fprintf(w, "origin:     %.3f %.3f %.3f\n", p.Orig[0], p.Orig[1], p.Orig[2])
	fmt.Fprintf(w, "tile size:  %.3f x %.3f\n", p.TileWidth, p.TileHeight)
	fmt.Fprintf(w, "max tiles:  %d\n", p.MaxTiles)
	fmt.Fprintf(w, "max polys:  %d\n", p.MaxPolys)
	fmt.Fprintf(w, "tiles:      %d\n", nav.GetTileCount())

	for i := int32(0); i < nav.GetMaxTiles(); i++ {
		tile := nav.GetTile(i)
		if tile == nil || tile.Header == nil {
			continue
		}
		h := tile.Header
		fmt.Fprintf(w, "  tile (%d,%d,%d): %d polys %d verts\n", h.X, h.Y, h.Layer, h.PolyCount, h.VertCount)
	}

	if tc := res.TileCache; tc != nil {
		cp := tc.GetParams()
		fmt.Fprintf(w, "cache tiles: %d of %d\n", tc.GetTileCount(), cp.MaxTiles)
		fmt.Fprintf(w, "cell:        %.3f x %.3f, %dx%d cells per tile\n", cp.Cs, cp.Ch, cp.Width, cp.Height)
		fmt.Fprintf(w, "obstacles:   %d max\n", cp.MaxObstacles)
	}
}
