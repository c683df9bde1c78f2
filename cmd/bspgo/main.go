// Command bspgo is the binary entry point: it only hands off to the cobra
// command tree in cmd/bspgo/commands, grounded on FocusStreamer's
// cmd/focusstreamer/main.go split between a thin main and a commands
// package.
package main

import "github.com/patrislav/bspgo/cmd/bspgo/commands"

func main() {
	commands.Execute()
}
