/*
Package shapegraph provides the transient constraint graph the shape
inference pass propagates over.

Nodes are variable paths. Two edge flavors exist: undirected equivalence
edges (connection endpoints and intra-component shape copies share a shape)
and directed compute edges (a computed shape fires once all of its
dependencies are known). The graph is rebuilt for every resolution run and
discarded after convergence.

Iteration order everywhere is node and edge insertion order. Resolution
must reach bit-identical decisions on every rank that builds the same
model, so no operation may depend on map enumeration order.

The graph is not safe for concurrent use; resolution is single-threaded.
*/
package shapegraph
