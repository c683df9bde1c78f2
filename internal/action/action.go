// Package action defines the argument record passed to every command
// handler (§4.3: "a command receives an argument record containing at
// least {direction, layout, resize-mode, target-desktop index, string
// vector, state}").
package action

import (
	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/tree"
)

// Direction selects a cycle/transfer/resize target relative to the focused
// leaf.
type Direction uint8

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirUp
	DirDown
)

// ResizeMode selects growth or shrinkage for the resize command.
type ResizeMode uint8

const (
	ResizeNone ResizeMode = iota
	ResizeGrow
	ResizeShrink
)

// Arg is the uniform argument passed to every registered command. Only the
// fields a given command cares about are populated by the key-binding
// table or the EWMH bridge.
type Arg struct {
	Direction    Direction
	Layout       tree.Layout
	Resize       ResizeMode
	DesktopIndex uint8
	Strings      []string
	State        client.State
}
