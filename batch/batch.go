// Package batch runs the image conditioner over files and directories,
// handling listing, output naming, per-file error reporting and optional
// parallelism across independent conversions.
package batch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/dstar-tools/imageprep/images"
	"github.com/dstar-tools/imageprep/prep"
	"github.com/dstar-tools/imageprep/watermark"
)

// Options configures a batch run.
type Options struct {
	// OutDir is where converted files are written; created on demand.
	OutDir string
	// Prefix and Suffix decorate the output file stem:
	// prefix_stem_suffix.jpg.
	Prefix string
	Suffix string
	// Workers is the number of concurrent conversions. Values below 1 are
	// treated as 1 (sequential). Conversions share no state, so any worker
	// count is safe; output ordering is not guaranteed.
	Workers int
	// Prep configures the conditioning pipeline.
	Prep prep.Options
	// Watermark is applied to every file; an empty spec disables it.
	Watermark watermark.Spec
}

// FileResult describes one successful conversion.
type FileResult struct {
	// InPath and OutPath are the source and written file paths.
	InPath  string
	OutPath string
	// Artifact is the conversion output metadata.
	Artifact *prep.Artifact
}

// IOError wraps filesystem failures around a conversion: unreadable input,
// an output directory that cannot be created, or a failed write. The
// conditioner itself never touches the disk.
type IOError struct {
	// Path is the file or directory the operation failed on.
	Path string
	// Err is the underlying filesystem error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Failure describes one failed conversion. The batch keeps going; failures
// are collected for the final report and exit code.
type Failure struct {
	// Path is the source file that failed.
	Path string
	// Err is the reason.
	Err error
}

// Summary aggregates a batch run.
type Summary struct {
	Results  []FileResult
	Failures []Failure
}

// Failed reports whether any file in the batch failed.
func (s Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Processor converts files using a fixed set of options. Safe for concurrent
// use; it holds no mutable state.
type Processor struct {
	opts Options
}

// New creates a Processor.
func New(opts Options) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{opts: opts}
}

// ListImages returns the supported image files directly inside dir, sorted
// by name. Subdirectories are not descended into.
//
// Arguments:
// - dir: Directory path to list.
//
// Returns:
// - []string: Full paths of supported image files, name-sorted.
// - error: An error if the directory cannot be read.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if images.IsSupportedPath(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// OutputName builds the output file name for a source path:
// prefix_stem_suffix.jpg, with empty decorations omitted.
func OutputName(inPath, prefix, suffix string) string {
	stem := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	name := stem
	if p := strings.TrimSpace(prefix); p != "" {
		name = p + "_" + name
	}
	if s := strings.TrimSpace(suffix); s != "" {
		name = name + "_" + s
	}
	return name + ".jpg"
}

// File converts a single image file and writes the result into OutDir.
// The JPEG is fully encoded in memory before the output file is created,
// so a failed conversion never leaves a partial file on disk.
//
// Arguments:
// - path: The source image file.
//
// Returns:
// - *FileResult: The conversion result with the written output path.
// - error: Decode/encode errors from the conditioner, or *IOError for
//   filesystem failures.
func (p *Processor) File(path string) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	artifact, err := prep.ConditionBytes(data, p.opts.Watermark, p.opts.Prep)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert %s", filepath.Base(path))
	}

	if err := os.MkdirAll(p.opts.OutDir, 0o755); err != nil {
		return nil, &IOError{Path: p.opts.OutDir, Err: err}
	}

	outPath := filepath.Join(p.opts.OutDir, OutputName(path, p.opts.Prefix, p.opts.Suffix))
	if err := os.WriteFile(outPath, artifact.Data, 0o644); err != nil {
		return nil, &IOError{Path: outPath, Err: err}
	}

	result := &FileResult{InPath: path, OutPath: outPath, Artifact: artifact}
	p.logResult(result)
	return result, nil
}

// Dir converts every supported image directly inside dir, continuing past
// individual failures. Conversions run on Options.Workers goroutines.
//
// Arguments:
// - dir: The input directory.
//
// Returns:
// - Summary: Per-file results and failures.
// - error: An error only when the directory itself cannot be processed
//   (unreadable, or contains no supported images).
func (p *Processor) Dir(dir string) (Summary, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return Summary{}, err
	}
	if len(paths) == 0 {
		return Summary{}, errors.Errorf("no supported image files found in %s", dir)
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)

	wg.Add(p.opts.Workers)
	for i := 0; i < p.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := p.File(path)
				mu.Lock()
				if err != nil {
					summary.Failures = append(summary.Failures, Failure{Path: path, Err: err})
				} else {
					summary.Results = append(summary.Results, *result)
				}
				mu.Unlock()
				if err != nil {
					log.Printf("FAIL %s: %v", filepath.Base(path), err)
				}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return summary, nil
}

// logResult prints the per-file status line.
func (p *Processor) logResult(r *FileResult) {
	line := fmt.Sprintf("OK  %s -> %s  (%.1f KB, quality=%d, %dx%d, mode=%s)",
		filepath.Base(r.InPath), filepath.Base(r.OutPath),
		float64(r.Artifact.Size())/1024.0, r.Artifact.Quality,
		r.Artifact.Width, r.Artifact.Height, p.opts.Prep.Mode)
	if !r.Artifact.Fit {
		line += "  [over budget at minimum quality]"
	}
	log.Print(line)
}
