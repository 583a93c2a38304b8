// Command simpledb is the CLI front end for the engine in pkg/database.
package main

import (
	"fmt"
	"os"

	"github.com/Chahine-tech/simpledb-go/cmd/simpledb/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
