// vidtrack/main.go
package main

import (
	"os"

	"github.com/pterm/pterm"

	"vidtrack/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}
