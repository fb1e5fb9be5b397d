package main

import (
	"fmt"
	"os"

	// Register the connector types
	_ "github.com/ajitpratap0/metacat/pkg/connector/bigquery"
	_ "github.com/ajitpratap0/metacat/pkg/connector/jdbc"
	_ "github.com/ajitpratap0/metacat/pkg/connector/mongodb"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
