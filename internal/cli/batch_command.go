package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"ogre-mesh-tools/internal/batch"
	"ogre-mesh-tools/internal/config"
	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/toolchain"
)

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	flags := registerOpFlags(fs)
	workers := fs.Int("workers", 0, "concurrent items (default: saved settings)")
	logsDir := fs.String("logs-dir", "", "write one JSON record per item into this directory")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: batch <directory> [--normals] [--obj] [--gltf]")
	}

	ops, err := flags.operations()
	if err != nil {
		return err
	}
	blender, err := flags.resolveBlender()
	if err != nil {
		return err
	}
	settings, err := config.Load(*flags.settings)
	if err != nil {
		return err
	}
	workerCount := *workers
	if workerCount <= 0 {
		workerCount = settings.Workers
	}

	// Ctrl-C stops dispatching new items; the in-flight ones finish and are
	// still recorded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := batch.Run(ctx, batch.Options{
		Dir:         fs.Arg(0),
		Operations:  ops,
		OutputRoots: flags.outputRoots(),
		BlenderPath: blender,
		Workers:     workerCount,
		LogsDir:     *logsDir,
		OnItem: func(completed, total int, res model.ItemResult) {
			if *flags.jsonOut {
				return
			}
			name := filepath.Base(res.InputPath)
			if res.Succeeded() {
				fmt.Printf("[%d/%d] %s %s\n", completed, total, okStyle.Render("done"), name)
			} else {
				fmt.Printf("[%d/%d] %s %s\n", completed, total, failStyle.Render("fail"), name)
			}
		},
	}, toolchain.Locate())
	if err != nil {
		return err
	}

	summary := batch.Summarize(report)
	if *flags.jsonOut {
		return printJSON(summary)
	}
	fmt.Println()
	fmt.Print(renderSummary(summary))
	if ctx.Err() != nil {
		fmt.Println("batch interrupted; remaining files were not started")
	}
	if summary.TotalItems == 0 {
		fmt.Println("no .mesh or .xml files found")
	}
	return nil
}
