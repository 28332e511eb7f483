package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/metwx/gribcoll"
	"github.com/metwx/gribcoll/codec"
	"github.com/metwx/gribcoll/codec/stub"
)

// dirOpener resolves fileno to "<dir>/<fileno>.grib1", the on-disk
// convention this CLI assumes for a collection's message files.
func dirOpener(dir string) func(fileno int) (codec.Stream, error) {
	return func(fileno int) (codec.Stream, error) {
		path := filepath.Join(dir, fmt.Sprintf("%d.grib1", fileno))
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

func openIndex(indexPath, filesDir string) (*gribcoll.Collection, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("opening index %q: %w", indexPath, err)
	}
	defer f.Close()

	collab := gribcoll.Collaborators{}
	if filesDir != "" {
		collab.OpenFile = dirOpener(filesDir)
	}
	return gribcoll.Open(f, gribcoll.JSONIndexDecoder{}, collab)
}

func runInfo(cCtx *cli.Context) error {
	log.Println("opening index:", cCtx.String("index"))
	coll, err := openIndex(cCtx.String("index"), cCtx.String("files"))
	if err != nil {
		return err
	}

	pt, err := loadParamTable(cCtx.String("param-table"))
	if err != nil {
		return err
	}
	log.Println("projecting schema")
	schema, err := gribcoll.Project(coll, pt)
	if err != nil {
		return err
	}

	reader := gribcoll.NewReader(coll, schema, gribcoll.Collaborators{})
	fmt.Print(reader.DetailInfo())
	return nil
}

func runSchema(cCtx *cli.Context) error {
	log.Println("opening index:", cCtx.String("index"))
	coll, err := openIndex(cCtx.String("index"), cCtx.String("files"))
	if err != nil {
		return err
	}

	pt, err := loadParamTable(cCtx.String("param-table"))
	if err != nil {
		return err
	}
	log.Println("projecting schema")
	schema, err := gribcoll.Project(coll, pt)
	if err != nil {
		return err
	}

	for gi, g := range schema.Groups {
		fmt.Printf("group %d:\n", gi)
		for _, cv := range g.Coords {
			fmt.Printf("  coord %-20s kind=%-10s units=%q len=%d\n", cv.Name, cv.Kind, cv.Units, len(cv.Values))
		}
		for _, dv := range g.Data {
			axes := make([]string, len(dv.Axes))
			for i, a := range dv.Axes {
				axes[i] = a.String()
			}
			fmt.Printf("  data  %-20s long_name=%q axes=(%s)\n", dv.Name, dv.LongName, strings.Join(axes, ","))
		}
	}
	return nil
}

// parseRange parses a "first:last:stride" selection, e.g. "0:2:1".
func parseRange(s string) (gribcoll.Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return gribcoll.Range{}, fmt.Errorf("range %q: want first:last:stride", s)
	}
	first, err1 := strconv.Atoi(parts[0])
	last, err2 := strconv.Atoi(parts[1])
	stride, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return gribcoll.Range{}, fmt.Errorf("range %q: non-numeric bound", s)
	}
	return gribcoll.Range{First: first, Last: last, Stride: stride}, nil
}

func parseSelection(cCtx *cli.Context) (map[gribcoll.AxisKind]gribcoll.Range, error) {
	axisFlags := map[string]gribcoll.AxisKind{
		"time": gribcoll.AxisTime,
		"ensemble": gribcoll.AxisEnsemble,
		"vertical": gribcoll.AxisVertical,
		"y": gribcoll.AxisY,
		"x": gribcoll.AxisX,
	}
	sel := map[gribcoll.AxisKind]gribcoll.Range{}
	for flagName, axis := range axisFlags {
		v := cCtx.String(flagName)
		if v == "" {
			continue
		}
		r, err := parseRange(v)
		if err != nil {
			return nil, err
		}
		sel[axis] = r
	}
	return sel, nil
}

func runRead(cCtx *cli.Context) error {
	log.Println("opening index:", cCtx.String("index"))
	coll, err := openIndex(cCtx.String("index"), cCtx.String("files"))
	if err != nil {
		return err
	}

	sel, err := parseSelection(cCtx)
	if err != nil {
		return err
	}

	// No production GRIB1 codec is wired into this module (it is an
	// external collaborator per design); the development codec below
	// reports each decoded cell as its own byte offset, which is enough
	// to exercise planning, file coalescing, and placement end to end.
	cod := &stub.Codec{Grid: func(pos int64, y, x int) float32 { return float32(pos) }}
	reader := gribcoll.NewReader(coll, nil, gribcoll.Collaborators{Codec: cod})

	log.Println("reading group", cCtx.Int("group"), "variable", cCtx.Int("var"))
	arr, diags, err := reader.Read(context.Background(), cCtx.Int("group"), cCtx.Int("var"), sel)
	if err != nil {
		return err
	}
	for _, d := range diags {
		log.Printf("diagnostic: %s: %s (result index %d)", d.Kind, d.Message, d.ResultIndex)
	}

	fmt.Printf("shape: %v\n", arr.Shape)
	fmt.Printf("data: %v\n", arr.Data)
	return nil
}

func main() {
	indexFlag := &cli.StringFlag{Name: "index", Usage: "path to a gribcat JSON index file", Required: true}
	filesFlag := &cli.StringFlag{Name: "files", Usage: "directory holding the collection's <fileno>.grib1 message files"}
	paramTableFlag := &cli.StringFlag{Name: "param-table", Usage: "path to a JSON parameter-table document (omit to use VAR<...> fallback names)"}

	app := &cli.App{
		Name: "gribcat",
		Usage: "inspect and slice a GRIB1 collection index",
		Commands: []*cli.Command{
			{
				Name: "info",
				Usage: "print a diagnostic dump of the collection index",
				Flags: []cli.Flag{indexFlag, filesFlag, paramTableFlag},
				Action: runInfo,
			},
			{
				Name: "schema",
				Usage: "print the projected schema (coordinate and data variables)",
				Flags: []cli.Flag{indexFlag, filesFlag, paramTableFlag},
				Action: runSchema,
			},
			{
				Name: "read",
				Usage: "slice one data variable and print the resulting buffer",
				Flags: []cli.Flag{
					indexFlag, filesFlag,
					&cli.IntFlag{Name: "group", Usage: "group index", Value: 0},
					&cli.IntFlag{Name: "var", Usage: "data variable index within the group", Value: 0},
					&cli.StringFlag{Name: "time", Usage: "time axis selection as first:last:stride"},
					&cli.StringFlag{Name: "ensemble", Usage: "ensemble axis selection as first:last:stride"},
					&cli.StringFlag{Name: "vertical", Usage: "vertical axis selection as first:last:stride"},
					&cli.StringFlag{Name: "y", Usage: "y axis selection as first:last:stride"},
					&cli.StringFlag{Name: "x", Usage: "x axis selection as first:last:stride"},
				},
				Action: runRead,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
