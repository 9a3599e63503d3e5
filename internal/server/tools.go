package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared schema fragments.

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func stageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"quickshift", "merged", "manual"},
		"description": "Label stage to read or edit. Default: manual",
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional focus zone; omit to process the whole image. Coordinates are 0-based, x2/y2 exclusive.",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Preprocessing
		{
			Name:        "segment_denoise",
			Description: "Smooth the image before segmentation. Quickshift turns every speck of noise into its own segment; denoising first gives fewer, larger segments. Operates on the whole image or a focus zone.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"none", "gaussian", "median"},
						"description": "Filter to apply. Default: the server's configured denoiser",
					},
					"strength": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian sigma or median radius in pixels",
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "segment_quickshift",
			Description: "Segment the denoised image with quickshift mode seeking. Each pixel links to its nearest denser neighbor in joint color/position space; links longer than max_dist are cut. Results go to the 'quickshift' stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"kernel_size": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian kernel standard deviation. Larger values give fewer segments. Default: 3",
					},
					"max_dist": map[string]interface{}{
						"type":        "number",
						"description": "Longest link kept between a pixel and its parent. Default: 20",
					},
					"ratio": map[string]interface{}{
						"type":        "number",
						"description": "Weight of color against position. Default: 0.5",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Seed for tie-break noise; equal seeds give equal segmentations. Default: 42",
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_merge",
			Description: "Merge adjacent quickshift segments whose mean colors (RGB normalized to [0,1]) are closer than threshold. Results go to the 'merged' stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Mean color distance below which neighbors merge. Default: 0.1",
					},
					"passes": map[string]interface{}{
						"type":        "integer",
						"description": "Number of greedy merge sweeps; 0 repeats until nothing merges. Default: 1",
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_promote",
			Description: "Copy the 'merged' stage into the 'manual' stage for hand editing, for the whole image or a focus zone.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Manual editing
		{
			Name:        "segment_paint",
			Description: "Assign a label to a set of pixels. Without a label, a fresh label unused by any stage is allocated in the 'manual' stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"stage": stageProperty(),
					"label": map[string]interface{}{
						"type":        "integer",
						"description": "Label to paint. Omit to allocate a new one",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Pixels to paint",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer"},
								"y": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"x", "y"},
						},
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_join",
			Description: "Join several segments into the first one listed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"stage": stageProperty(),
					"labels": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Labels to join; all take the first label",
					},
				},
				"required": []string{"path", "labels"},
			},
		},

		// Inspection and output
		{
			Name:        "segment_properties",
			Description: "Report area, centroid and bounding box of one segment, or of every segment when label is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"stage": stageProperty(),
					"label": map[string]interface{}{
						"type":        "integer",
						"description": "Segment label. Omit to list all segments",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_render",
			Description: "Render a stage as a base64 PNG: segment boundaries drawn over the image, or every segment filled with its own color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"stage": stageProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"boundaries", "labels"},
						"description": "Rendering mode. Default: boundaries",
					},
					"source": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"base", "denoised"},
						"description": "Image drawn under the boundaries. Default: base",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Boundary color as hex (e.g. '#FFFF00'). Default: yellow",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Write each segment's label at its centroid",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_export",
			Description: "Write a rendering of a stage to a file. The format follows the extension (.png, .jpg, .gif, .tif, .bmp, .webp).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"stage": stageProperty(),
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the file to write",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"boundaries", "labels"},
						"description": "Rendering mode. Default: labels",
					},
				},
				"required": []string{"path", "output"},
			},
		},
	}
}
