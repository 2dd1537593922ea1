/*
Package resolver is the namespace/connection/shape resolution engine. It
reconciles a hierarchical model of components — each leaf declaring typed
array variables, each group selectively re-exposing descendant variables
under promoted names — into a flat connection graph with concrete shapes
and composed index mappings.

Resolution is a multi-phase pass over the immutable declaration model:

 1. Validation: structural sanity of the tree (duplicate paths, rules on
    leaves, unknown children) fails fast, before any derivation.

 2. Promotion resolution: every group's rename/glob/alias directives are
    composed bottom-up into per-scope visible-name tables, recording the
    ordered rule contributions per variable for later index composition.

 3. Connection resolution: explicit connections fan out through promoted
    names, co-promoted inputs are grouped, and every group without a
    reachable output gets exactly one synthesized AutoSource with
    reconciled default metadata.

 4. Shape inference: concrete shapes propagate over a constraint graph to
    a fixed point, from statically declared shapes across connection and
    copy-shape equivalences and through computed shape functions.

 5. Index composition: slicing declared at different namespace levels for
    the same input collapses into one flat index mapping per connection.

Conflicts found in phases 2-5 are collected across the whole pass and
raised together as one *PassError, so a single invocation surfaces every
fixable issue. On any failure the caller receives no Resolution; a
half-resolved model is never observable.

Resolution is a pure, deterministic function of the declarations: it is
single-threaded, performs no I/O, iterates strictly in declaration order,
and re-running it on an unchanged model yields an identical artifact.
*/
package resolver
