package main

import (
	"fmt"
	"os"

	"github.com/rl1809/warehouse-slotting/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
