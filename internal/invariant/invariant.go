// Package invariant enforces the tree-internal invariants of §3/§8: a
// violation is a programming error in the core, never a recoverable
// condition, so it aborts the process after logging — matching §7's
// "Invariant violation -> abort process" policy.
package invariant

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Check aborts the process if cond is false, logging msg as the cause.
func Check(cond bool, msg string, fields map[string]interface{}) {
	if cond {
		return
	}
	ev := log.Fatal()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("invariant violated: " + msg)
	os.Exit(1)
}
