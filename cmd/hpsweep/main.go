package main

import (
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/hpsweep/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
