package main

import (
	"os"

	"github.com/jask/shortcutquiz/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
