// Package render turns formatted blueprints into HTML and PDF documents.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/internal/formatter"
	"github.com/kiranshivaraju/compass/internal/metrics"
)

// ErrConverter is returned when the HTML to PDF converter fails.
var ErrConverter = errors.New("pdf converter failed")

//go:embed templates/blueprint.html
var templateFS embed.FS

var blueprintTemplate = template.Must(
	template.New("blueprint.html").
		Funcs(template.FuncMap{"barWidth": barWidth}).
		ParseFS(templateFS, "templates/blueprint.html"),
)

// Converter writes a PDF rendering of html to outPath.
type Converter interface {
	Convert(ctx context.Context, html []byte, outPath string) error
}

// Wkhtmltopdf runs the wkhtmltopdf binary, feeding HTML on stdin.
type Wkhtmltopdf struct {
	Path    string
	Timeout time.Duration
}

func (w Wkhtmltopdf) Convert(ctx context.Context, html []byte, outPath string) error {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, w.Path, "--quiet", "--encoding", "utf-8", "-", outPath)
	cmd.Stdin = bytes.NewReader(html)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrConverter, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Renderer produces blueprint documents.
type Renderer struct {
	converter Converter
	dir       string
}

// NewRenderer writes PDFs beneath dir, or the system temp dir when dir is empty.
func NewRenderer(c Converter, dir string) *Renderer {
	return &Renderer{converter: c, dir: dir}
}

// HTML renders the blueprint page.
func (r *Renderer) HTML(fb formatter.FormattedBlueprint) ([]byte, error) {
	var buf bytes.Buffer
	if err := blueprintTemplate.Execute(&buf, fb); err != nil {
		return nil, fmt.Errorf("rendering blueprint html: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF writes Blueprint_{id}.pdf into a fresh temp directory and
// returns its path. The caller removes the file's directory when done.
func (r *Renderer) RenderPDF(ctx context.Context, fb formatter.FormattedBlueprint) (path string, err error) {
	defer func() { metrics.PDFRenders.WithLabelValues(metrics.Outcome(err)).Inc() }()

	html, err := r.HTML(fb)
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(r.dir, "blueprint-")
	if err != nil {
		return "", fmt.Errorf("creating render dir: %w", err)
	}
	path = filepath.Join(dir, FileName(fb.BlueprintID))
	if err := r.converter.Convert(ctx, html, path); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}

// FileName is the download name for a blueprint PDF.
func FileName(blueprintID string) string {
	return "Blueprint_" + filepath.Base(blueprintID) + ".pdf"
}

func barWidth(value, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(value / total * 100)
}
