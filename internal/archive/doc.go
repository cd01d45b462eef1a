// Package archive persists acquisition runs and frame headers to SQLite.
//
// The archive stores run lifecycle rows and one row per emitted frame
// (counters, geometry, metadata), not the image payloads themselves; the
// payloads are transcripts of the setting log and are consumed by the host,
// not replayed from storage. An Observer adapter plugs the recorder into
// the acquisition engine's notifier fanout.
package archive
