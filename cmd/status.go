package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [out_dir]",
	Short: "Show the rendered slots and validate the manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, args []string) error {
	dir := outDir
	if len(args) == 1 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	m, err := artifact.ReadJSON(filepath.Join(dir, artifact.ManifestName))
	if err != nil {
		return err
	}
	printStatus(m, dir)

	errs := artifact.Validate(m, dir)
	if len(errs) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d artifacts, all files present\n\n", m.Stats.TotalArtifacts)
		return nil
	}
	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	fmt.Println()
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func printStatus(m *artifact.Manifest, dir string) {
	p := newPrinter()
	fmt.Println()
	p.Printf("  Manifest version: %d\n", m.Version)
	p.Printf("  Updated:          %s\n", m.UpdatedAt)
	p.Printf("  Artifacts:        %d\n", m.Stats.TotalArtifacts)
	p.Printf("  Total size:       %s\n", formatBytes(m.Stats.TotalBytes))
	fmt.Println()

	slots := make([]string, 0, len(m.Artifacts))
	for s := range m.Artifacts {
		slots = append(slots, string(s))
	}
	sort.Strings(slots)
	for _, s := range slots {
		a := m.Artifacts[artifact.Slot(s)]
		printArtifact(&a, dir)
		if a.Source != "" {
			p.Printf("    source %s, generated %s\n", a.Source, a.GeneratedAt)
		}
	}
	if len(slots) > 0 {
		fmt.Println()
	}
}
