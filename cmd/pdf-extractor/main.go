package main

import (
	"os"

	"github.com/joseph-ayodele/product-extractor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
