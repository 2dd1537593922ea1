/*
Package indexer implements concrete array shapes and the index expressions
used to connect a target variable to a sub-array of its source.

An Index selects elements of a source array either as a flat list of
positions into the row-major flattening of the source, or dimension by
dimension with explicit positions and start/stop/step slices. Negative
positions count from the end of the dimension they apply to, so an Index is
only meaningful relative to a concrete source Shape; every operation here
takes that shape as an argument.

Indices compose: applying an outer Index to a source and then an inner
Index to the result is equivalent to applying a single flat Index to the
original source. The resolver relies on this to collapse slicing declared
at several namespace levels into one effective mapping per connection.
*/
package indexer
