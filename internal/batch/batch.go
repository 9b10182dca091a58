// Package batch discovers mesh files in a directory and runs the conversion
// pipeline over each, isolating failures per file.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ogre-mesh-tools/internal/config"
	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/pipeline"
)

type Options struct {
	Dir         string
	Operations  []model.Operation
	OutputRoots map[model.Operation]string
	BlenderPath string
	// Workers bounds concurrent items. Each item's own operation sequence
	// stays strictly ordered regardless.
	Workers int
	// LogsDir, when set, receives one JSON record per completed item.
	LogsDir string
	// OnItem is called with each completed ItemResult, in completion order.
	// completed counts items recorded so far, total is the discovered count.
	OnItem func(completed, total int, res model.ItemResult)
}

// Discover lists candidate mesh files directly inside dir (non-recursive),
// in lexicographic order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if model.IsRecognizedInput(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// Run processes every discovered file and aggregates the results. Individual
// failures never abort the batch; a cancelled ctx stops new items from
// starting while in-flight items finish and are still recorded. An empty
// directory completes immediately with an empty report.
func Run(ctx context.Context, opts Options, tools pipeline.Tools) (model.BatchReport, error) {
	files, err := Discover(opts.Dir)
	if err != nil {
		return model.BatchReport{}, err
	}

	report := model.BatchReport{}
	if len(files) == 0 {
		report.Finalize()
		return report, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	p := pipeline.New(tools)
	jobCh := make(chan int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workerFn := func() {
		defer wg.Done()
		for i := range jobCh {
			res := p.Run(model.ConversionRequest{
				InputPath:   files[i],
				Operations:  opts.Operations,
				OutputRoots: opts.OutputRoots,
				BlenderPath: opts.BlenderPath,
			})
			mu.Lock()
			report.Append(res)
			completed := len(report.Items)
			if opts.LogsDir != "" {
				writeItemLog(opts.LogsDir, i, res)
			}
			if opts.OnItem != nil {
				opts.OnItem(completed, len(files), res)
			}
			mu.Unlock()
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go workerFn()
	}

dispatch:
	for i := range files {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobCh)
	wg.Wait()

	report.Finalize()
	return report, nil
}

// writeItemLog persists one item's result under the logs directory. Log
// failures are swallowed, diagnostics must never fail the batch.
func writeItemLog(logsDir string, index int, res model.ItemResult) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("%04d_%s.json", index+1, filepath.Base(res.InputPath))
	_ = config.WriteJSON(filepath.Join(logsDir, name), res)
}
