package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorustyt/navbind/bind"
	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/navmesh"
)

func parseVec3(s string) (common.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return common.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v common.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return common.Vec3{}, fmt.Errorf("coordinate %d of %q: %w", i, s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func handlePath(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("path", flag.ContinueOnError)
	var src setSource
	var lf logFlags
	from := fs.String("from", "", "Start position x,y,z (required)")
	to := fs.String("to", "", "End position x,y,z (required)")
	extents := fs.String("extents", "", "Nearest poly search half extents x,y,z")
	format := fs.String("format", "text", "Output format: text, json or proto")
	src.register(fs)
	lf.register(fs)
	if err := parseFlags(fs, &lf, args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" && *format != "proto" {
		fmt.Fprintf(os.Stderr, "Error: unknown -format %q\n", *format)
		fs.Usage()
		return errUsage
	}
	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "Error: -from and -to are required")
		fs.Usage()
		return errUsage
	}
	start, err := parseVec3(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	end, err := parseVec3(*to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}
	var opts *navmesh.QueryOpts
	if *extents != "" {
		he, err := parseVec3(*extents)
		if err != nil {
			return fmt.Errorf("-extents: %w", err)
		}
		opts = &navmesh.QueryOpts{HalfExtents: &he}
	}

	res, err := src.load(context.Background())
	if err != nil {
		return err
	}
	return printPath(stdout, res.NavMesh, start, end, opts, *format)
}

// / Writes the path in the given format. The json and proto formats carry the
// / whole result record, failures included.
func printPath(w io.Writer, nav *navmesh.NavMesh, start, end common.Vec3, opts *navmesh.QueryOpts, format string) error {
	q, err := navmesh.NewNavMeshQuery(nav, 0)
	if err != nil {
		return err
	}
	path := q.ComputePath(start, end, opts)
	switch format {
	case "json":
		data, err := bind.ToJSON(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "proto":
		data, err := bind.Encode(path)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	if !path.Success {
		return fmt.Errorf("compute path: %s (%v)", path.Error, path.Status)
	}
	for i, p := range path.Path {
		fmt.Fprintf(w, "%d: %.3f %.3f %.3f\n", i, p.X(), p.Y(), p.Z())
	}
	return nil
}
