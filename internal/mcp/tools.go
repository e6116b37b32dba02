package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	maxImageBytes = 5 * 1024 * 1024
	maxVideoBytes = 8 * 1024 * 1024
)

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".m4v": true}

// visionModel is the hardcoded upstream model id used for every built-in
// vision tool call (§4.7).
const visionModel = "glm-4.5v"

// Endpoint selects which upstream vision endpoint to call.
type Endpoint string

const (
	EndpointCoding  Endpoint = "coding"
	EndpointGeneral Endpoint = "general"
)

// VisionClient performs the upstream vision chat-completions call; the
// upstream HTTP transport itself is an external collaborator, so this is
// a narrow interface rather than a concrete client.
type VisionClient interface {
	Call(ctx context.Context, endpoint Endpoint, model, prompt, dataURI string) (string, error)
}

// RetryableOnGeneral reports whether an error returned from the coding
// endpoint should fall back to the general endpoint (§4.7: "falling back
// to the general endpoint only on specific upstream errors").
type RetryableOnGeneral interface {
	error
	FallbackToGeneral() bool
}

// ToolRegistry dispatches tools/call requests to the fixed built-in tool
// set, grounded on the teacher's switch-dispatch-by-name executor.
type ToolRegistry struct {
	client    VisionClient
	hasCoding bool // whether the calling key carries the coding entitlement
}

// NewToolRegistry builds a registry; hasCodingEntitlement governs whether
// the coding endpoint is tried before the general one.
func NewToolRegistry(client VisionClient, hasCodingEntitlement bool) *ToolRegistry {
	return &ToolRegistry{client: client, hasCoding: hasCodingEntitlement}
}

var toolPrompts = map[string]string{
	"analyze_image":                "Describe the contents of this image in detail.",
	"analyze_video":                "Describe what happens in this video.",
	"ui_to_artifact":               "Produce an implementation artifact (markup/code) matching this UI screenshot.",
	"extract_text_from_screenshot": "Extract all visible text from this screenshot verbatim.",
	"diagnose_error_screenshot":    "Diagnose the error shown in this screenshot and suggest a fix.",
	"understand_technical_diagram": "Explain the technical diagram shown in this image.",
	"analyze_data_visualization":   "Summarize the trends and key values shown in this chart.",
	"ui_diff_check":                "Compare the two UI states depicted and list visible differences.",
}

// Call dispatches params.Name through the fixed registry. An unsupported
// tool name yields a tool-level error result, never a transport 404
// (§4.7 supplemented rule).
func (r *ToolRegistry) Call(ctx context.Context, params ToolCallParams) ToolResult {
	prompt, known := toolPrompts[params.Name]
	if !known {
		return textResult(fmt.Sprintf("unknown tool: %s", params.Name), true)
	}

	path, _ := params.Arguments["path"].(string)
	if path == "" {
		return textResult("missing required argument: path", true)
	}

	dataURI, err := encodeLocalFile(path)
	if err != nil {
		return textResult(err.Error(), true)
	}

	if custom, ok := params.Arguments["prompt"].(string); ok && custom != "" {
		prompt = custom
	}

	text, err := r.invoke(ctx, prompt, dataURI)
	if err != nil {
		return textResult(err.Error(), true)
	}
	return textResult(text, false)
}

func (r *ToolRegistry) invoke(ctx context.Context, prompt, dataURI string) (string, error) {
	if r.hasCoding {
		text, err := r.client.Call(ctx, EndpointCoding, visionModel, prompt, dataURI)
		if err == nil {
			return text, nil
		}
		if fb, ok := err.(RetryableOnGeneral); !ok || !fb.FallbackToGeneral() {
			return "", err
		}
	}
	return r.client.Call(ctx, EndpointGeneral, visionModel, prompt, dataURI)
}

// encodeLocalFile reads a local image or video file and base64-encodes it
// into a data URI, enforcing the per-kind size caps of §4.7.
func encodeLocalFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var kind, mime string
	var limit int64
	switch {
	case imageExtensions[ext]:
		kind, limit = "image", maxImageBytes
		mime = "image/" + strings.TrimPrefix(ext, ".")
		if ext == ".jpg" {
			mime = "image/jpeg"
		}
	case videoExtensions[ext]:
		kind, limit = "video", maxVideoBytes
		mime = "video/" + strings.TrimPrefix(ext, ".")
	default:
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > limit {
		return "", fmt.Errorf("%s %s exceeds the %s size limit", kind, path, humanize.Bytes(uint64(limit)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
