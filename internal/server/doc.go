// Package server implements the MCP (Model Context Protocol) server for image
// segmentation tools.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes quickshift
// segmentation, region merging and manual label editing as MCP tools.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Segmentation:
//   - segment_denoise: Smooth the image before segmenting
//   - segment_quickshift: Quickshift over the whole image or a focus zone
//   - segment_merge: Merge adjacent segments with similar mean color
//   - segment_promote: Copy merged labels into the manual stage
//
// Manual Editing:
//   - segment_paint: Assign a label to pixels
//   - segment_join: Join segments into one
//
// Inspection and Output:
//   - segment_properties: Area, centroid and bounding box of segments
//   - segment_render: Boundaries or label colors as base64 PNG
//   - segment_export: Write a rendering to disk
//
// # Workspaces
//
// Every image path gets a workspace holding its denoised copy and three label
// stages (quickshift, merged, manual). Workspaces are keyed by absolute path
// and persist for the lifetime of the server process, so successive tool
// calls refine the same segmentation.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
