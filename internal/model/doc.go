/*
Package model is the unified, format-agnostic representation of a declared
analysis model: the tree of systems, each leaf's variable table, and each
group's promotion and connection directives.

The model is immutable once loaded. Resolution never writes into it; every
derived artifact (promoted-name maps, the connection set, resolved shapes)
lives in tables keyed by absolute path inside the resolver's Resolution,
so re-running resolution after a structural edit starts from scratch and
cannot observe stale state.

Declaration order is preserved everywhere — child lists, variable tables,
promotion rules, connections. The resolver's determinism guarantee depends
on iterating these slices, never on map enumeration.
*/
package model
