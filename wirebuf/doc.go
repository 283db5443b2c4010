// Package wirebuf provides Buffer, the growable byte storage that
// DBus messages are assembled in and parsed out of.
//
// A Buffer has a logical length distinct from its capacity, and a
// maximum length fixed at construction. Growing a Buffer past its
// maximum length, or failing to allocate more storage, is reported as
// an ordinary error and leaves the Buffer unchanged. The byte just
// past the logical end of a Buffer is always a NUL, so that the
// contents can be scanned without separate bounds checks.
//
// Misuse of a Buffer, such as writing to a constant or locked Buffer,
// indexing out of range, or using a Buffer after calling
// [Buffer.Free], indicates a bug in the calling code and panics.
//
// Buffers are not safe for concurrent use. Callers sharing a Buffer
// between goroutines must serialize access themselves.
package wirebuf
