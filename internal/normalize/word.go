// =============================================================================
// Timesheet & Invoice Merger - Word Document Conversion
// =============================================================================
//
// Renders word documents to PDF through an external office converter.
//
// CONVERTER COMMAND:
//   {command} {args...} --outdir {dir} {input}
//
// =============================================================================

package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Converter renders a word-processor document to PDF inside outDir and
// returns the path of the produced file.
type Converter interface {
	Convert(ctx context.Context, src, outDir string) (string, error)
}

// =============================================================================
// OFFICE CONVERTER
// =============================================================================

// OfficeConverter runs a headless office suite (LibreOffice by default).
// Calls are serialized: the renderer is a single shared resource that is not
// safe to run concurrently.
type OfficeConverter struct {
	Command string
	Args    []string
	Timeout time.Duration

	mu sync.Mutex
}

// NewOfficeConverter returns a converter for command with args and timeout.
func NewOfficeConverter(command string, args []string, timeout time.Duration) *OfficeConverter {
	return &OfficeConverter{Command: command, Args: args, Timeout: timeout}
}

// Available reports whether the converter binary can be found.
func (c *OfficeConverter) Available() error {
	if _, err := exec.LookPath(c.Command); err != nil {
		return fmt.Errorf("document converter %q not found on PATH: %w", c.Command, err)
	}
	return nil
}

// Convert runs: <command> <args...> --outdir <outDir> <src>
func (c *OfficeConverter) Convert(ctx context.Context, src, outDir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.Args...), "--outdir", outDir, src)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %s", types.ErrConverterTimeout, c.Timeout, filepath.Base(src))
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%s failed: %w: %s", c.Command, err, strings.TrimSpace(stderr.String()))
	}

	out := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".pdf")
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("%s produced no pdf for %s", c.Command, filepath.Base(src))
	}
	return out, nil
}

// wordToPDF renders src through the converter into a private subdirectory,
// then applies the PDF orientation rule into dst.
func (n *Normalizer) wordToPDF(ctx context.Context, src, outDir, dst string) error {
	if n.opts.Converter == nil {
		return fmt.Errorf("%w: no document converter configured", types.ErrUnsupported)
	}

	rawDir, err := os.MkdirTemp(outDir, "render-")
	if err != nil {
		return fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(rawDir)

	raw, err := n.opts.Converter.Convert(ctx, src, rawDir)
	if err != nil {
		return err
	}
	return n.normalizePDF(raw, dst)
}
