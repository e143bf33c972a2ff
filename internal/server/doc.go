// Package server exposes a cover-art responder session over MCP (Model
// Context Protocol).
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
// Handles:
//   - bip_handle_for_title: Track title to cover-art handle
//   - bip_resolve_handle: Album id to handle
//   - bip_is_valid_handle: Check a handle
//
// Transfers:
//   - bip_image_properties: image-properties XML
//   - bip_thumbnail: Fixed-size JPEG thumbnail (base64)
//   - bip_image: Negotiated image (base64)
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: a ToolError whose kind names the failure class
//     (UnknownHandle, MalformedDescriptor, SizeExceeded, ...)
//
// # Usage
//
//	srv := server.New(resp, logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
