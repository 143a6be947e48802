// Package main is the entry point for the csposition CLI tool, which analyses
// where the defending side of a CS2 match positions itself inside a bombsite,
// round by round.
package main

import "github.com/pable/go-cs-positions/cmd"

func main() {
	cmd.Execute()
}
