package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra/doc"
)

// GenerateDocs writes reference pages for every command into outDir, as man
// pages (format "man") or Markdown (format "markdown").
func GenerateDocs(outDir, format string, build BuildInfo) error {
	root := NewRootCommand(io.Discard, build)
	root.DisableAutoGenTag = true

	var generate func() error
	switch format {
	case "man", "":
		header := &doc.GenManHeader{
			Title:   "MARKBOOK",
			Section: "1",
			Source:  "markbook " + build.Version,
			Manual:  "Markbook Manual",
		}
		generate = func() error { return doc.GenManTree(root, header, outDir) }
	case "markdown", "md":
		generate = func() error { return doc.GenMarkdownTree(root, outDir) }
	default:
		return fmt.Errorf("generate docs: unknown format %q", format)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("generate docs: create output directory: %w", err)
	}
	if err := generate(); err != nil {
		return fmt.Errorf("generate docs: %w", err)
	}
	return nil
}
