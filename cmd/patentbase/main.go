package main

import (
	"os"

	"github.com/patentbase-io/patentbase/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
