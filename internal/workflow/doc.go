// Package workflow runs the fixed content pipeline: title, hooks, script,
// description, tags. Steps execute sequentially, the title step pauses in a
// selecting state while a winner is picked from the generated alternatives,
// and a failing step aborts the run with the remaining steps left pending.
// Progress is pushed to registered sinks as immutable step snapshots.
package workflow
