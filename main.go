package main

import (
	"os"

	"edms/m/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
