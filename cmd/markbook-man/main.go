package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/amanthanvi/markbook/internal/cli"
	"github.com/amanthanvi/markbook/internal/version"
)

func main() {
	var (
		outDir string
		format string
	)
	flag.StringVar(&outDir, "out", "dist/man", "output directory for generated pages")
	flag.StringVar(&format, "format", "man", "page format: man or markdown")
	flag.Parse()

	err := cli.GenerateDocs(outDir, format, cli.BuildInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildTime: version.BuildTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "markbook-man: %v\n", err)
		os.Exit(1)
	}
}
