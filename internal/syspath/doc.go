// Package syspath defines the structured, canonical identifier for systems
// and variables in the model tree.
//
// Every system and every variable is addressed by an absolute dotted path
// rooted at the model ("wing.spar.stress"). Paths are the only join key the
// resolver uses between the declaration model and its derived tables, so
// parsing and comparison live here, in one place, behind a small value type.
package syspath
