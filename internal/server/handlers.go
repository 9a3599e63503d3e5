package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/workspace"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "segment_quickshift").
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

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies workspace defaults for optional parameters
//  3. Looks up (or creates) the workspace of the image
//  4. Calls the appropriate workspace or imaging function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Preprocessing
	case "segment_denoise":
		return s.handleSegmentDenoise(args)

	// Segmentation
	case "segment_quickshift":
		return s.handleSegmentQuickshift(ctx, args)
	case "segment_merge":
		return s.handleSegmentMerge(ctx, args)
	case "segment_promote":
		return s.handleSegmentPromote(args)

	// Manual editing
	case "segment_paint":
		return s.handleSegmentPaint(args)
	case "segment_join":
		return s.handleSegmentJoin(args)

	// Inspection and output
	case "segment_properties":
		return s.handleSegmentProperties(args)
	case "segment_render":
		return s.handleSegmentRender(args)
	case "segment_export":
		return s.handleSegmentExport(args)

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

// mustMarshalJSON converts a value to a pretty-printed JSON string. Tool
// results are plain structs, so a marshal failure is a bug; it is reported
// as a JSON error object instead of an empty string.
func mustMarshalJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return string(b)
}

// regionArgs is the optional focus zone shared by several tools.
type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r *regionArgs) rect() *image.Rectangle {
	if r == nil {
		return nil
	}
	rect := image.Rect(r.X1, r.Y1, r.X2, r.Y2)
	return &rect
}

// zoneBounds reports the zone a tool acted on.
func zoneBounds(ws *workspace.Workspace, r *regionArgs) imaging.Bounds {
	if r == nil {
		return imaging.Bounds{X2: ws.Width(), Y2: ws.Height()}
	}
	return imaging.Bounds{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2}
}

// parseStage resolves an optional stage name, defaulting to def.
func parseStage(name string, def workspace.Stage) (workspace.Stage, error) {
	if name == "" {
		return def, nil
	}
	return workspace.ParseStage(name)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	// A workspace already holds the pixels; only the header is read again.
	if ws, key, ok := s.loadedWorkspace(a.Path); ok {
		return imaging.DescribeImage(key, ws.Bounds())
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if ws, _, ok := s.loadedWorkspace(a.Path); ok {
		return &imaging.DimensionsResult{Width: ws.Width(), Height: ws.Height()}, nil
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Preprocessing Handlers ===

type segmentDenoiseArgs struct {
	Path     string      `json:"path"`
	Kind     string      `json:"kind"`
	Strength float64     `json:"strength"`
	Region   *regionArgs `json:"region"`
}

// DenoiseResult reports a denoising run.
type DenoiseResult struct {
	Denoiser string         `json:"denoiser"`
	Zone     imaging.Bounds `json:"zone"`
}

func (s *Server) handleSegmentDenoise(args json.RawMessage) (interface{}, error) {
	var a segmentDenoiseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}
	kind := "configured"
	if a.Kind != "" {
		kind = a.Kind
		d, err := imaging.NewDenoiser(a.Kind, a.Strength)
		if err != nil {
			return nil, err
		}
		ws.SetDenoiser(d)
	}

	if a.Region == nil {
		ws.Denoise()
	} else if err := ws.DenoiseRegion(*a.Region.rect()); err != nil {
		return nil, err
	}
	return &DenoiseResult{
		Denoiser: kind,
		Zone:     zoneBounds(ws, a.Region),
	}, nil
}

// === Segmentation Handlers ===

type segmentQuickshiftArgs struct {
	Path       string      `json:"path"`
	KernelSize *float64    `json:"kernel_size"`
	MaxDist    *float64    `json:"max_dist"`
	Ratio      *float64    `json:"ratio"`
	Seed       *int64      `json:"seed"`
	Region     *regionArgs `json:"region"`
}

// SegmentResult reports a segmentation run.
type SegmentResult struct {
	Segments      int            `json:"segments"`
	StageSegments int            `json:"stage_segments"`
	Zone          imaging.Bounds `json:"zone"`
}

func (s *Server) handleSegmentQuickshift(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentQuickshiftArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}

	p := ws.Config().Params
	if a.KernelSize != nil {
		p.KernelSize = *a.KernelSize
	}
	if a.MaxDist != nil {
		p.MaxDist = *a.MaxDist
	}
	if a.Ratio != nil {
		p.Ratio = *a.Ratio
	}
	if a.Seed != nil {
		p.Seed = *a.Seed
	}

	n, err := ws.Segment(ctx, a.Region.rect(), p)
	if err != nil {
		return nil, err
	}
	total, err := ws.SegmentCount(workspace.StageQuickshift)
	if err != nil {
		return nil, err
	}
	return &SegmentResult{Segments: n, StageSegments: total, Zone: zoneBounds(ws, a.Region)}, nil
}

type segmentMergeArgs struct {
	Path      string      `json:"path"`
	Threshold *float64    `json:"threshold"`
	Passes    *int        `json:"passes"`
	Region    *regionArgs `json:"region"`
}

// MergeResult reports a merge run.
type MergeResult struct {
	Merges        int            `json:"merges"`
	StageSegments int            `json:"stage_segments"`
	Zone          imaging.Bounds `json:"zone"`
}

func (s *Server) handleSegmentMerge(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentMergeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := ws.Config()
	threshold, passes := cfg.Threshold, cfg.Passes
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if a.Passes != nil {
		passes = *a.Passes
	}

	merges, err := ws.Merge(ctx, a.Region.rect(), threshold, passes)
	if err != nil {
		return nil, err
	}
	total, err := ws.SegmentCount(workspace.StageMerged)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Merges: merges, StageSegments: total, Zone: zoneBounds(ws, a.Region)}, nil
}

type segmentPromoteArgs struct {
	Path   string      `json:"path"`
	Region *regionArgs `json:"region"`
}

func (s *Server) handleSegmentPromote(args json.RawMessage) (interface{}, error) {
	var a segmentPromoteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}
	if err := ws.Promote(a.Region.rect()); err != nil {
		return nil, err
	}
	total, err := ws.SegmentCount(workspace.StageManual)
	if err != nil {
		return nil, err
	}
	return &SegmentResult{StageSegments: total, Zone: zoneBounds(ws, a.Region)}, nil
}

// === Manual Editing Handlers ===

type segmentPaintArgs struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Label  *int   `json:"label"`
	Points []struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"points"`
	Region *regionArgs `json:"region"`
}

// PaintResult reports a paint operation.
type PaintResult struct {
	Label  int `json:"label"`
	Pixels int `json:"pixels"`
}

func (s *Server) handleSegmentPaint(args json.RawMessage) (interface{}, error) {
	var a segmentPaintArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	stage, err := parseStage(a.Stage, workspace.StageManual)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]image.Point, 0, len(a.Points))
	for _, p := range a.Points {
		points = append(points, image.Pt(p.X, p.Y))
	}
	// The workspace checks the region against the image before painting it.
	var rects []image.Rectangle
	pixels := len(points)
	if r := a.Region.rect(); r != nil {
		rects = append(rects, *r)
		pixels += r.Dx() * r.Dy()
	}
	if len(points) == 0 && len(rects) == 0 {
		return nil, fmt.Errorf("nothing to paint: give points or a region")
	}

	if a.Label == nil {
		if stage != workspace.StageManual {
			return nil, fmt.Errorf("a new label can only be painted in the manual stage")
		}
		label, err := ws.PaintNew(points, rects...)
		if err != nil {
			return nil, err
		}
		return &PaintResult{Label: label, Pixels: pixels}, nil
	}
	if err := ws.Paint(stage, *a.Label, points, rects...); err != nil {
		return nil, err
	}
	return &PaintResult{Label: *a.Label, Pixels: pixels}, nil
}

type segmentJoinArgs struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Labels []int  `json:"labels"`
}

func (s *Server) handleSegmentJoin(args json.RawMessage) (interface{}, error) {
	var a segmentJoinArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	stage, err := parseStage(a.Stage, workspace.StageManual)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}
	changed, err := ws.Join(stage, a.Labels)
	if err != nil {
		return nil, err
	}
	return &PaintResult{Label: a.Labels[0], Pixels: changed}, nil
}

// === Inspection and Output Handlers ===

type segmentPropertiesArgs struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Label *int   `json:"label"`
}

// PropertiesResult lists segment measurements.
type PropertiesResult struct {
	Stage    string                      `json:"stage"`
	Count    int                         `json:"count"`
	Segments []imaging.SegmentProperties `json:"segments"`
}

func (s *Server) handleSegmentProperties(args json.RawMessage) (interface{}, error) {
	var a segmentPropertiesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	stage, err := parseStage(a.Stage, workspace.StageManual)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}

	if a.Label != nil {
		props, err := ws.Properties(stage, *a.Label)
		if err != nil {
			return nil, err
		}
		return &PropertiesResult{Stage: stage.String(), Count: 1, Segments: []imaging.SegmentProperties{*props}}, nil
	}
	all, err := ws.AllProperties(stage)
	if err != nil {
		return nil, err
	}
	return &PropertiesResult{Stage: stage.String(), Count: len(all), Segments: all}, nil
}

type segmentRenderArgs struct {
	Path     string `json:"path"`
	Stage    string `json:"stage"`
	Mode     string `json:"mode"`
	Source   string `json:"source"`
	Color    string `json:"color"`
	Annotate bool   `json:"annotate"`
}

// render draws one stage of ws according to a.
func render(ws *workspace.Workspace, a segmentRenderArgs) (*image.NRGBA, error) {
	stage, err := parseStage(a.Stage, workspace.StageManual)
	if err != nil {
		return nil, err
	}
	lbl, err := ws.Labels(stage)
	if err != nil {
		return nil, err
	}

	var out *image.NRGBA
	switch a.Mode {
	case "", "boundaries":
		var under image.Image
		switch a.Source {
		case "", "base":
			under = ws.Base()
		case "denoised":
			under = ws.Denoised()
		default:
			return nil, fmt.Errorf("unknown source: %s", a.Source)
		}
		var boundary color.Color = color.RGBA{255, 255, 0, 255}
		if a.Color != "" {
			c, err := imaging.ParseHexColor(a.Color)
			if err != nil {
				return nil, fmt.Errorf("invalid color: %w", err)
			}
			boundary = c
		}
		if out, err = imaging.RenderBoundaries(under, lbl, boundary); err != nil {
			return nil, err
		}
	case "labels":
		if out, err = imaging.RenderLabels(lbl, ws.Width(), ws.Height()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown mode: %s", a.Mode)
	}

	if a.Annotate {
		props, err := ws.AllProperties(stage)
		if err != nil {
			return nil, err
		}
		imaging.AnnotateSegments(out, imaging.Anchors(props), color.White)
	}
	return out, nil
}

func (s *Server) handleSegmentRender(args json.RawMessage) (interface{}, error) {
	var a segmentRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := render(ws, a)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNGBase64(out)
}

type segmentExportArgs struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Output string `json:"output"`
	Mode   string `json:"mode"`
}

// ExportResult reports a written file.
type ExportResult struct {
	Output string `json:"output"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleSegmentExport(args json.RawMessage) (interface{}, error) {
	var a segmentExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if a.Mode == "" {
		a.Mode = "labels"
	}
	ws, err := s.workspace(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := render(ws, segmentRenderArgs{Stage: a.Stage, Mode: a.Mode})
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(a.Output, out); err != nil {
		return nil, err
	}
	return &ExportResult{Output: a.Output, Width: out.Rect.Dx(), Height: out.Rect.Dy()}, nil
}
