package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// Dispatcher routes extraction to a format-specific extractor based on
// the declared mime type, falling back to the filename extension and
// finally to plain text.
type Dispatcher struct {
	plain ports.TextExtractor
	pdf   ports.TextExtractor
	xlsx  ports.TextExtractor
}

func NewDispatcher(plain, pdf, xlsx ports.TextExtractor) *Dispatcher {
	return &Dispatcher{plain: plain, pdf: pdf, xlsx: xlsx}
}

func (d *Dispatcher) Extract(ctx context.Context, file *domain.StoredFile) (string, error) {
	switch format(file) {
	case "pdf":
		return d.pdf.Extract(ctx, file)
	case "xlsx":
		return d.xlsx.Extract(ctx, file)
	default:
		return d.plain.Extract(ctx, file)
	}
}

func format(file *domain.StoredFile) string {
	mime := strings.ToLower(file.MimeType)
	switch {
	case strings.Contains(mime, "application/pdf"):
		return "pdf"
	case strings.Contains(mime, "spreadsheetml"), strings.Contains(mime, "ms-excel"):
		return "xlsx"
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		return "pdf"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "plain"
	}
}
