package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/ironsheep/raster-tools-mcp/internal/config"
	"github.com/ironsheep/raster-tools-mcp/internal/engine"
	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/processing"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "raster_info", "raster_filter").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", slog.String("tool", params.Name), slog.String("error", err.Error()))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return s.errorResponse(req.ID, -32603, "Internal error", err.Error())
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(text),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Images
	case "image_info":
		return s.handleImageInfo(args)
	case "raster_import":
		return s.handleRasterImport(args)

	// Rasters
	case "raster_info":
		return s.handleRasterInfo(args)
	case "raster_preview":
		return s.handleRasterPreview(args)
	case "raster_compare":
		return s.handleRasterCompare(args)

	// Windowed processing
	case "raster_windows":
		return s.handleRasterWindows(args)
	case "raster_filter":
		return s.handleRasterFilter(ctx, args)
	case "filter_list":
		return s.handleFilterList()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// region is an optional pixel window given as tool arguments.
type region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r *region) rect() image.Rectangle {
	if r == nil {
		return image.Rectangle{}
	}
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// rasterInfo is the JSON form of a raster profile.
type rasterInfo struct {
	Path        string              `json:"path"`
	Driver      string              `json:"driver"`
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	Count       int                 `json:"count"`
	DType       raster.DType        `json:"dtype"`
	NoData      string              `json:"nodata"`
	BlockWidth  int                 `json:"block_width"`
	BlockHeight int                 `json:"block_height"`
	Tiled       bool                `json:"tiled"`
	Compress    string              `json:"compress,omitempty"`
	Stats       []imaging.BandStats `json:"stats,omitempty"`
}

func newRasterInfo(path string, p raster.Profile) *rasterInfo {
	return &rasterInfo{
		Path:        path,
		Driver:      p.Driver,
		Width:       p.Width,
		Height:      p.Height,
		Count:       p.Count,
		DType:       p.DType,
		NoData:      raster.FormatNoData(p.NoData),
		BlockWidth:  p.BlockWidth,
		BlockHeight: p.BlockHeight,
		Tiled:       p.Tiled,
		Compress:    p.Compress,
	}
}

// === Image Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type rasterImportArgs struct {
	Path   string   `json:"path"`
	Output string   `json:"output"`
	NoData *float64 `json:"nodata"`
}

func (s *Server) handleRasterImport(args json.RawMessage) (interface{}, error) {
	var a rasterImportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, errors.New("output is required")
	}
	p, err := imaging.Import(s.cache, a.Path, a.Output, a.NoData)
	if err != nil {
		return nil, err
	}
	return newRasterInfo(a.Output, p), nil
}

// === Raster Handlers ===

type rasterInfoArgs struct {
	Path  string `json:"path"`
	Stats bool   `json:"stats"`
}

func (s *Server) handleRasterInfo(args json.RawMessage) (interface{}, error) {
	var a rasterInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if !a.Stats {
		src, err := raster.Open(a.Path)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return newRasterInfo(a.Path, src.Profile()), nil
	}
	data, p, err := raster.ReadAll(a.Path)
	if err != nil {
		return nil, err
	}
	info := newRasterInfo(a.Path, p)
	info.Stats = imaging.Stats(data)
	return info, nil
}

type rasterPreviewArgs struct {
	Path     string   `json:"path"`
	Bands    []int    `json:"bands"`
	Ramp     string   `json:"ramp"`
	Clip     *float64 `json:"clip"`
	MaxSize  int      `json:"max_size"`
	Region   *region  `json:"region"`
	SavePath string   `json:"save_path"`
}

func (s *Server) handleRasterPreview(args json.RawMessage) (interface{}, error) {
	var a rasterPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.Preview(a.Path, imaging.PreviewOptions{
		Bands:    a.Bands,
		Ramp:     a.Ramp,
		Clip:     a.Clip,
		MaxSize:  a.MaxSize,
		Region:   a.Region.rect(),
		SavePath: a.SavePath,
	})
}

type rasterCompareArgs struct {
	Path1     string  `json:"path1"`
	Path2     string  `json:"path2"`
	Tolerance float64 `json:"tolerance"`
}

func (s *Server) handleRasterCompare(args json.RawMessage) (interface{}, error) {
	var a rasterCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative, got %v", a.Tolerance)
	}
	d1, _, err := raster.ReadAll(a.Path1)
	if err != nil {
		return nil, err
	}
	d2, _, err := raster.ReadAll(a.Path2)
	if err != nil {
		return nil, err
	}
	return imaging.Compare(d1, d2, a.Tolerance)
}

// === Windowed Processing Handlers ===

type rasterWindowsArgs struct {
	Path         string `json:"path"`
	WindowSize   int    `json:"window_size"`
	WindowHeight int    `json:"window_height"`
	Overlap      int    `json:"overlap"`
	Bands        []int  `json:"bands"`
	PerBand      bool   `json:"per_band"`
	Limit        int    `json:"limit"`
	Overlay      bool   `json:"overlay"`
	ShowIndex    bool   `json:"show_index"`
	LineColor    string `json:"line_color"`
	MaxSize      int    `json:"max_size"`
}

type rasterWindowsResult struct {
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	WindowSize  [2]int            `json:"window_size"`
	Overlap     int               `json:"overlap"`
	Mode        string            `json:"mode"`
	Count       int               `json:"count"`
	Items       []engine.WorkItem `json:"items"`
	Truncated   bool              `json:"truncated,omitempty"`
	ImageBase64 string            `json:"image_base64,omitempty"`
	MimeType    string            `json:"mime_type,omitempty"`
}

// handleRasterWindows lists the work items a filter run would create, and
// optionally draws their write windows over a preview of the raster.
func (s *Server) handleRasterWindows(args json.RawMessage) (interface{}, error) {
	var a rasterWindowsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.WindowSize == 0 {
		a.WindowSize = engine.DefaultWindowSize
	}
	if a.WindowHeight == 0 {
		a.WindowHeight = a.WindowSize
	}
	if a.Limit <= 0 {
		a.Limit = 100
	}

	src, err := raster.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	p := src.Profile()

	// Plan with the same checks as a run so that invalid settings are
	// reported here rather than later.
	o := engine.DefaultOptions()
	for _, opt := range []engine.Option{
		engine.WithWindow(a.WindowSize, a.WindowHeight),
		engine.WithOverlap(a.Overlap),
		engine.WithBands(a.Bands...),
	} {
		opt(&o)
	}
	if err := o.Check(p); err != nil {
		return nil, err
	}
	mode := processing.WholeStack
	if a.PerBand {
		mode = processing.PerBand
	}
	items := engine.Plan(p.Bounds().Size(), o.WindowSize, o.Overlap, o.Bands, mode)

	res := &rasterWindowsResult{
		Width:      p.Width,
		Height:     p.Height,
		WindowSize: [2]int{o.WindowSize.X, o.WindowSize.Y},
		Overlap:    o.Overlap,
		Mode:       mode.String(),
		Count:      len(items),
		Items:      items,
	}
	if len(items) > a.Limit {
		res.Items = items[:a.Limit]
		res.Truncated = true
	}

	if a.Overlay {
		img, _, err := imaging.Render(src, imaging.PreviewOptions{MaxSize: a.MaxSize})
		if err != nil {
			return nil, err
		}
		var windows []image.Rectangle
		for _, it := range items {
			if len(windows) == 0 || windows[len(windows)-1] != it.Tile.Write {
				windows = append(windows, it.Tile.Write)
			}
		}
		over, err := imaging.OverlayWindows(img, p.Bounds().Size(), windows, a.ShowIndex, a.LineColor)
		if err != nil {
			return nil, err
		}
		if res.ImageBase64, err = imaging.EncodePNG(over); err != nil {
			return nil, err
		}
		res.MimeType = "image/png"
	}
	return res, nil
}

func (s *Server) handleRasterFilter(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var job config.Job
	if err := json.Unmarshal(args, &job); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	unit, err := job.Unit()
	if err != nil {
		return nil, err
	}
	opts, err := job.Options(s.env)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		opts = append(opts, engine.WithMetrics(s.metrics))
	}

	rep, err := engine.Run(ctx, job.Input, job.Output, unit, opts...)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"run_id":      rep.RunID,
		"filter":      rep.Unit,
		"items":       rep.Items,
		"workers":     rep.Workers,
		"options":     rep.Options,
		"duration_ms": rep.Duration.Milliseconds(),
		"output":      newRasterInfo(job.Output, rep.Output),
	}, nil
}

type filterInfo struct {
	Name        string                `json:"name"`
	Aliases     []string              `json:"aliases,omitempty"`
	Help        string                `json:"help"`
	Description string                `json:"description,omitempty"`
	Mode        string                `json:"mode"`
	DType       raster.DType          `json:"dtype"`
	NoData      string                `json:"nodata"`
	Arguments   []processing.Argument `json:"arguments"`
}

func (s *Server) handleFilterList() (interface{}, error) {
	filters := processing.Filters()
	out := make([]filterInfo, 0, len(filters))
	for _, f := range filters {
		out = append(out, filterInfo{
			Name:        f.Name(),
			Aliases:     f.Aliases(),
			Help:        f.Help(),
			Description: f.Description(),
			Mode:        f.Mode().String(),
			DType:       f.DType(),
			NoData:      raster.FormatNoData(f.NoData()),
			Arguments:   f.Arguments(),
		})
	}
	return map[string]interface{}{
		"filters":   out,
		"pad_modes": raster.PadModes(),
		"ramps":     imaging.RampNames(),
	}, nil
}
