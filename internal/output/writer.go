// Package output writes a finished project to disk.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// ErrUnsafePath is returned for file names that would leave the project
// directory.
var ErrUnsafePath = errors.New("path escapes project directory")

// File names written next to the sources.
const (
	ArchitectureFile  = "architecture.json"
	ReviewSummaryFile = "code_review_summary.json"
	ReadmeFile        = "README.md"
	ResultFile        = "airo-result.json"
)

// Writer lays out a project under a base directory.
type Writer struct {
	cfg    config.OutputConfig
	logger *logging.Logger
}

// New creates a Writer.
func New(cfg config.OutputConfig, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Writer{cfg: cfg, logger: logger.Named("output")}
}

// Dir returns the directory a project with this name is written to.
func (w *Writer) Dir(name string) string {
	return filepath.Join(w.cfg.Dir, project.Slug(name))
}

// Write persists res and returns the project directory.
func (w *Writer) Write(ctx context.Context, res *project.Result) (string, error) {
	dir, err := filepath.Abs(w.Dir(res.Request.Name))
	if err != nil {
		return "", fmt.Errorf("resolving output dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	res.OutputDir = dir

	files, err := w.files(res)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFile(dir, f.path, f.data); err != nil {
			return "", err
		}
	}

	// Written last so it records every other file.
	result, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	if err := writeFile(dir, ResultFile, result); err != nil {
		return "", err
	}

	if w.cfg.GitIntegration {
		hash, err := commitAll(dir)
		if err != nil {
			return "", fmt.Errorf("git integration: %w", err)
		}
		w.logger.Debug(ctx, "project committed", zap.String("commit", hash))
	}

	w.logger.Info(ctx, "project written", zap.String("dir", dir), zap.Int("files", len(files)+1))
	return dir, nil
}

type file struct {
	path string
	data []byte
}

func (w *Writer) files(res *project.Result) ([]file, error) {
	var files []file

	if res.Architecture != nil {
		data, err := json.MarshalIndent(res.Architecture, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding architecture: %w", err)
		}
		files = append(files, file{ArchitectureFile, data})
	}

	for _, a := range res.Artifacts {
		if a.Source != "" {
			files = append(files, file{a.Filename, []byte(withNewline(a.Source))})
		}
	}
	for _, t := range res.Tests {
		if !t.Failed && t.Source != "" {
			files = append(files, file{t.Filename, []byte(withNewline(t.Source))})
		}
	}

	if len(res.Reviews) > 0 {
		for _, r := range res.Reviews {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("encoding review: %w", err)
			}
			files = append(files, file{ReviewFilename(r.Filename), data})
		}
		data, err := json.MarshalIndent(Summarize(res.Reviews), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding review summary: %w", err)
		}
		files = append(files, file{ReviewSummaryFile, data})
	}

	files = append(files, file{ReadmeFile, []byte(Readme(res))})

	name, data, err := Manifest(res)
	if err != nil {
		return nil, err
	}
	if name != "" {
		files = append(files, file{name, data})
	}
	return files, nil
}

// ReviewFilename is the per-component review file name.
func ReviewFilename(source string) string {
	return "review_" + strings.ReplaceAll(source, "/", "_") + ".json"
}

// SafeJoin joins rel under root and rejects results outside root.
func SafeJoin(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, p)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return p, nil
}

func writeFile(root, rel string, data []byte) error {
	p, err := SafeJoin(root, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
