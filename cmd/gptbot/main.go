package main

import (
	"os"

	"github.com/bdobrica/gptbot/internal/gptbot/cli"
)

func main() {
	os.Exit(cli.Execute())
}
