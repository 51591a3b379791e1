// Package places defines the Place record every ingested gazetteer is
// normalized into, the per-namespace DataSet that holds them and the
// Registry the alignment engine resolves qualified ids against.
//
// A qualified id has the form "<namespace>:<local-id>", e.g.
// "pleiades:589704". Places are owned by the loader that built them and
// are read-only to the alignment engine.
package places
