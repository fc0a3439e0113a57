package cmd

import (
	"fmt"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// newPrinter formats numbers with digit grouping.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func printArtifact(a *artifact.Artifact, dir string) {
	p := newPrinter()
	state := "fresh"
	if a.Stale {
		state = "stale (previous render)"
	}
	p.Printf("  %-10s %s/%s\n", string(a.Slot)+":", dir, a.Path)
	p.Printf("    %d × %d px, %s, %s, hash %s, %s\n",
		a.Width, a.Height, a.Format, formatBytes(a.Size), a.Hash, state)
	if a.Palette != "" {
		p.Printf("    palette %s\n", a.Palette)
	}
	if a.Dominant != "" {
		p.Printf("    dominant color %s\n", a.Dominant)
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
