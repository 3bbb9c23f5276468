package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zeroinbox/cardactions/internal/catalog"
)

var catalogPath string

func init() {
	flag.StringVar(&catalogPath, "catalog", "", "Path to catalog YAML (default: embedded)")
}

// catalogcheck lints an action catalog file: parse errors, duplicate ids,
// compound markers without definitions, steps that do not resolve.
func main() {
	flag.Parse()

	var (
		cat *catalog.Catalog
		err error
	)
	if catalogPath == "" {
		cat, err = catalog.Default()
	} else {
		cat, err = catalog.LoadFile(catalogPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogcheck: %v\n", err)
		os.Exit(1)
	}

	if err := cat.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "catalogcheck: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: %d catalog entries\n", cat.Len())
}
