// The main package for the webindexer executable.
package main

import (
	"github.com/JakeFAU/webindexer/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
