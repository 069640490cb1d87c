package main

import (
	"os"

	"github.com/spf13/afero"

	"github.com/bopaquin/convert-trace/internal/cli"
)

func main() {
	if err := cli.New(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}
