// linkfinder resolves keywords to known URLs, falling back to a trained
// classifier when no keyword matches.
package main

import (
	"os"

	"github.com/cognicore/linkfinder/cmd/linkfinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
