/*
Package main provides the command line tool to run operation scripts against
a red-black tree and to stress test it. Usage:

	ordtree run [script] [--keys int|float|string] [--pb] [--template path]
	ordtree stress [--seeds N] [--ops N] [--key-space N] [--workers N]
	ordtree version
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
