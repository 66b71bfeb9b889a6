// Package main is the entry point of the blofeld command.
package main

import "github.com/blofeld/blofeld/blofeld/cmd"

func main() {
	cmd.Execute()
}
