// Command prelude flattens nested values and inspects records saved by the
// prelude store.
package main

import "github.com/mesh-intelligence/prelude/internal/cli"

func main() {
	cli.Execute()
}
