// Command cannonbench measures how precisely waits and rate controllers perform on the current machine.
package main

import (
	"os"

	"github.com/eventcannon/eventcannon/internal/bench"
)

func main() {
	os.Exit(bench.Execute())
}
