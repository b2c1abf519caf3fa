// Package server implements an MCP (Model Context Protocol) server for
// inline-resize.
//
// The server keeps one content cache for the life of the process, so
// repeated builds requested by a client reuse scanned text and resized
// variants exactly as the watch loop does.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - resize_run: Build src into dest
//   - cache_keys: List cache keys and generations
//   - cache_set_max_age: Change the eviction age
//   - image_dimensions: Probe an image file
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the
// underlying message in the data field. Unknown methods yield -32601 and
// malformed tools/call params yield -32602.
package server
