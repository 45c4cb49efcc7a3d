// Command citydb imports and exports 3D city feature graphs.
package main

import "github.com/mesh-intelligence/citydb/internal/cli"

func main() {
	cli.Execute()
}
