package main

import (
	"fmt"
	"os"

	"github.com/polochinoc/Small-TIFF-API/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tiffkit: %v\n", err)
		os.Exit(1)
	}
}
