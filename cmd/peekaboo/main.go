package main

import (
	"log"
	"os"

	"github.com/interpretive-systems/peekaboo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if cli.IsReported(err) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
