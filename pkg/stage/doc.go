/*
Package stage holds the pipeline stage graph and its transition validator.

A Graph is built once from a list of StageConfig and is immutable afterwards,
so it can be shared by every request without locking. Construction validates
the graph: every allowed destination must be a known stage and every stage must
be reachable from the entry stage. Cycles and backward edges are allowed.

A Registry holds several named graphs (custom pipelines) with one default.
*/
package stage
