package main

import (
	"os"

	screenercmder "github.com/probitylab/screener/cmd/screener"
)

func main() {
	cmd := screenercmder.NewScreenerCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
