// Command rota-merge serves and prints the merged clinic rota.
//
// Usage:
//
//	rota-merge serve -c rota.yaml     # Start the HTTP API
//	rota-merge fetch --format json    # Print the merged rota once
//	rota-merge validate -c rota.yaml  # Validate configuration
//	rota-merge version                # Show version info
package main

import "github.com/pfrederiksen/rota-merge/internal/cli"

func main() {
	cli.Execute()
}
