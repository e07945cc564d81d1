// Package myftp implements a miniature FTP-like file transfer service.
//
// A Server exposes one working directory over the myftp wire protocol
// (see package github.com/myftp/myftp/encoding/frame),
// and a Client drives it one request at a time: list, get, put, sha256 and quit.
//
// Every connection carries strictly alternating requests and replies.
// The server runs one goroutine per connection, each owning its socket,
// its scratch buffer, and any file it has open.
package myftp

// BufferSize is the size of the scratch buffer used to stream file data,
// and the upper bound on names and tool output carried in a single frame.
const BufferSize = 16 * 1024

// ListenBacklog is the accept queue length requested by ListenAndServe.
const ListenBacklog = 1024
