package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Path of the raster (native .rtr file, GeoTIFF when built with GDAL, or mem:// path)",
}

var bandsProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "integer", "minimum": 1},
	"description": "1-based band indexes. Default: all bands",
}

var regionProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional pixel window; x2 and y2 are exclusive",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Images
		{
			Name:        "image_info",
			Description: "Describe an image file (PNG, JPEG, GIF, TIFF, BMP): size, format and the number of bands an import would produce.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_import",
			Description: "Convert an image file into an 8-bit raster: 1 band for grayscale, 3 for opaque colour images, 4 with alpha.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"output": pathProperty,
					"nodata": map[string]interface{}{
						"type":        "number",
						"description": "Optional nodata value of the new raster",
					},
				},
				"required": []string{"path", "output"},
			},
		},

		// Rasters
		{
			Name:        "raster_info",
			Description: "Get the profile of a raster: size, band count, data type, nodata, block layout and compression. Optionally compute per-band statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"stats": map[string]interface{}{
						"type":        "boolean",
						"description": "Also compute min, max and mean of the valid pixels of each band. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_preview",
			Description: "Render a raster as a base64 PNG. One band is mapped through a colour ramp; three bands make an RGB composite. Values are contrast-stretched between percentiles.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty,
					"bands": bandsProperty,
					"ramp": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "ndvi", "terrain", "viridis"},
						"description": "Colour ramp for single-band previews. Default gray",
					},
					"clip": map[string]interface{}{
						"type":        "number",
						"description": "Percentage of darkest and brightest values to saturate, in [0, 50). Default 2",
						"default":     2,
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Default 512",
						"default":     512,
					},
					"region": regionProperty,
					"save_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to also save the preview to (.png, .jpg, .tif)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_compare",
			Description: "Compare two rasters of the same shape pixel by pixel and report how much they differ.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path1": pathProperty,
					"path2": pathProperty,
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Largest absolute difference still counted as equal. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path1", "path2"},
			},
		},

		// Windowed processing
		{
			Name:        "raster_windows",
			Description: "List the work items a filter run would create for a window size and overlap, optionally drawn over a preview of the raster. Use this to choose tiling parameters before running raster_filter.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"window_size": map[string]interface{}{
						"type":        "integer",
						"description": "Window width in pixels. Default 1024",
						"default":     1024,
					},
					"window_height": map[string]interface{}{
						"type":        "integer",
						"description": "Window height in pixels. Default: window_size",
					},
					"overlap": map[string]interface{}{
						"type":        "integer",
						"description": "Context pixels read around each window; must be less than half the window. Default 0",
						"default":     0,
					},
					"bands":    bandsProperty,
					"per_band": map[string]interface{}{
						"type":        "boolean",
						"description": "Plan one item per band and window, as per-band filters do",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of items listed. Default 100",
						"default":     100,
					},
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return a PNG preview with the write windows outlined",
					},
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each outlined window with its index",
					},
					"line_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as #RRGGBB. Default red",
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the overlay preview. Default 512",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_filter",
			Description: "Apply a filter to a raster window by window, in parallel, and write the result to a new raster. See filter_list for the filters and their arguments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input":  pathProperty,
					"output": pathProperty,
					"filter": map[string]interface{}{
						"type":        "string",
						"description": "Filter name or alias (e.g. median, sum, mean, adaptive_gaussian)",
					},
					"window_size": map[string]interface{}{
						"type":        "integer",
						"description": "Square window size in pixels. Default 1024",
						"default":     1024,
					},
					"overlap": map[string]interface{}{
						"type":        "integer",
						"description": "Context pixels around each window, usually half the kernel size. Default 0",
						"default":     0,
					},
					"pad_mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"none", "constant", "edge", "maximum", "mean", "median", "minimum", "reflect", "symmetric", "wrap"},
						"description": "How pixels beyond the raster edges are synthesized. Default edge",
					},
					"bands": bandsProperty,
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Worker goroutines. Default: RASTERTOOLS_MAXWORKERS or one per CPU",
					},
					"args": map[string]interface{}{
						"type":        "object",
						"description": "Filter arguments, e.g. {\"kernel_size\": 5}",
					},
				},
				"required": []string{"input", "output", "filter"},
			},
		},
		{
			Name:        "filter_list",
			Description: "List the available filters with their arguments and defaults, the pad modes and the preview colour ramps.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
