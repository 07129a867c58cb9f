// Package movebox provides Box, an owning handle to a heap value whose backing record can be moved
// to a new slot on demand by an external compaction driver.
//
// A Box caches the handle of the record holding its payload. When a driver calls Relocate, a new
// record is allocated and the old one is demoted to a stub that forwards to it, but nothing is copied.
// The next access through the Box notices that its cached record is a stub, moves the payload into
// the new record, frees the stub, and updates its cache. Because only canonical records can be
// relocated, the forward chain seen by a Box is never longer than one hop.
//
// Relocate must only be called on a Box that has been accessed (or resolved) since its last
// relocation. Relocating twice in a row is a contract violation and panics.
//
// Neither Box nor record.Arena are safe for concurrent use. Even Read mutates the Box.
package movebox
