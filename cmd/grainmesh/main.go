// Command grainmesh generates synthetic grain microstructures and runs the
// decimation, winding repair and node type passes over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "grainmesh:", err)
		stop()
		os.Exit(1)
	}
}
