package main

import (
	"os"

	"jsdeps/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
