package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-studygen/internal/format"
	"github.com/alnah/go-studygen/internal/generate"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// deriveOutputPath converts an input file path to a JSON output path.
// Example: "biology.txt" -> "biology.study.json"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".study.json"
}

// warnNonJSONExtension writes a warning to w if path has an extension
// other than .json. The output is JSON regardless of the extension.
func warnNonJSONExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".json" {
		_, _ = fmt.Fprintf(w, "Warning: output is JSON regardless of %s extension\n", ext)
	}
}

// progressPrinter returns a progress callback writing one status line per
// state change worth showing to a user.
func progressPrinter(w io.Writer) generate.ProgressFunc {
	return func(ev generate.Event) {
		switch ev.State {
		case generate.StateChunking:
			_, _ = fmt.Fprintln(w, "Preparing corpus...")
		case generate.StateRequesting:
			if ev.Total > 1 {
				_, _ = fmt.Fprintf(w, "  Generating part %d/%d...\n", ev.Chunk+1, ev.Total)
			} else {
				_, _ = fmt.Fprintln(w, "Generating...")
			}
		case generate.StateRetrying:
			_, _ = fmt.Fprintf(w, "  Part %d/%d: retrying in %s (attempt %d)...\n",
				ev.Chunk+1, ev.Total, format.Delay(ev.Delay), ev.Attempt)
		case generate.StateChunkFailed:
			_, _ = fmt.Fprintf(w, "  Part %d/%d failed\n", ev.Chunk+1, ev.Total)
		case generate.StateMerging:
			if ev.Total > 1 {
				_, _ = fmt.Fprintf(w, "Merging %d parts...\n", ev.Total)
			}
		}
	}
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path string, content []byte) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}

// ensureDir creates d if needed and checks it is a writable directory.
func ensureDir(d string) error {
	if d == "" {
		return errors.New("directory cannot be empty")
	}
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
		return fmt.Errorf("cannot create directory: %w", err)
	}
	info, err := os.Stat(d)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	probe, err := os.CreateTemp(d, ".go-studygen-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}
