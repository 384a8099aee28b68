// libmap generates a typed, deterministic metadata model of a
// TypeScript/Svelte component library.
package main

import (
	"os"

	"github.com/fuzdev/libmap/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
