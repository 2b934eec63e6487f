// Package server implements the MCP (Model Context Protocol) server for raster tools.
//
// This package provides a JSON-RPC 2.0 server that exposes windowed raster
// processing through the MCP protocol, so that an AI client can inspect
// rasters, plan a tiling and run filters over arbitrarily large inputs.
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
// Images:
//   - image_info: Describe an image file
//   - raster_import: Convert an image file into a raster
//
// Rasters:
//   - raster_info: Profile and optional band statistics
//   - raster_preview: Colour-ramped or RGB preview as base64 PNG
//   - raster_compare: Pixel-by-pixel comparison of two rasters
//
// Windowed processing:
//   - raster_windows: List (and draw) the work items of a run
//   - raster_filter: Run a filter over a raster with the parallel engine
//   - filter_list: Filters, arguments, pad modes and ramps
//
// # Image Caching
//
// Decoded image files are cached by path for the lifetime of the server, so
// image_info followed by raster_import decodes the file once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.WithEnv(env), server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
