// matcheck parses material files and compiles every shader against an
// in-memory backend, reporting syntax errors and unsupported features without
// needing a GPU.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/egonelbre/async"
	"github.com/loov/hrtime"

	"github.com/adinfit/glmaterial/material"
	"github.com/adinfit/glmaterial/material/nullbackend"
)

var (
	dump      = flag.Bool("dump", false, "print assembled sources of every shader")
	version   = flag.String("glsl", "4.30", "shading language version reported by the backend")
	core      = flag.Bool("core", false, "pretend to be a core profile context")
	noCompute = flag.Bool("nocompute", false, "pretend compute shaders are unsupported")

	verbose     = flag.Bool("v", false, "log informational messages")
	veryVerbose = flag.Bool("vv", false, "log debug messages")
	quiet       = flag.Bool("q", false, "only log errors")
)

func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Options describe the backend every file is checked against.
type Options struct {
	Version string
	Core    bool
	Compute bool
	Log     *slog.Logger
}

// Result is the outcome of checking one file.
type Result struct {
	Path    string
	Shaders []string
	Sources map[string]material.Sources
	Err     error
	Took    time.Duration
}

// Check compiles path with its own backend and registry, so calls may run
// concurrently.
func Check(path string, opts Options) Result {
	start := hrtime.Now()

	backend := nullbackend.New()
	backend.Version = opts.Version
	backend.Core = opts.Core
	backend.Compute = opts.Compute

	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := material.NewRegistry()
	compiler := material.NewCompiler(backend, registry, material.WithLogger(log.With("file", path)))

	result := Result{Path: path}
	result.Err = compiler.LoadMaterialFile(path)

	result.Shaders = registry.Names()
	result.Sources = make(map[string]material.Sources, len(result.Shaders))
	for _, name := range result.Shaders {
		sh, _ := registry.Get(name)
		result.Sources[name] = sh.Sources()
	}
	registry.Shutdown()

	result.Took = hrtime.Since(start)
	return result
}

// CheckAll checks paths using the given number of workers. Results keep
// the order of paths.
func CheckAll(paths []string, opts Options, workers int) []Result {
	results := make([]Result, len(paths))
	async.Iter(len(paths), workers, func(i int) {
		results[i] = Check(paths[i], opts)
	})
	return results
}

// Report writes a line per result and, with dump set, the assembled sources.
// It returns the number of failed files.
func Report(w io.Writer, results []Result, dump bool) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			label := "error"
			if kind, ok := material.KindOf(r.Err); ok {
				label = kind.String()
			}
			if material.IsFatal(r.Err) {
				label += " (fatal)"
			}
			fmt.Fprintf(w, "FAIL\t%s\t%s: %s\n", r.Path, label, material.Message(r.Err))
		} else {
			fmt.Fprintf(w, "ok\t%s\t%d shaders\t%v\n", r.Path, len(r.Shaders), r.Took)
		}

		if !dump {
			continue
		}
		for _, name := range r.Shaders {
			src := r.Sources[name]
			if src.IsCompute() {
				fmt.Fprintf(w, "--- %s compute\n%s", name, src.Compute)
				continue
			}
			fmt.Fprintf(w, "--- %s vertex\n%s", name, src.Vertex)
			fmt.Fprintf(w, "--- %s pixel\n%s", name, src.Pixel)
		}
	}
	return failed
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.materials...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: LevelFromFlags(*veryVerbose, *verbose, *quiet),
	}))

	opts := Options{
		Version: *version,
		Core:    *core,
		Compute: !*noCompute,
		Log:     log,
	}

	paths := flag.Args()
	results := CheckAll(paths, opts, runtime.GOMAXPROCS(0))

	if failed := Report(os.Stdout, results, *dump); failed > 0 {
		log.Error("material check failed", "files", failed, "of", len(paths))
		os.Exit(1)
	}
}
