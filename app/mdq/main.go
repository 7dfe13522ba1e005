package main

import (
	"os"

	"github.com/noelzubin/mdq/app/cli"
)

func main() {
	os.Exit(cli.Execute())
}
