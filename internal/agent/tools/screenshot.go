package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"
)

// ScreenshotTool captures a display and saves it as a PNG under the
// workspace. The saved path comes back as the result artifact so the
// orchestrator can forward the image to the chat platform.
type ScreenshotTool struct {
	dir string
}

// NewScreenshotTool creates a screenshot tool writing into dir.
func NewScreenshotTool(dir string) *ScreenshotTool {
	return &ScreenshotTool{dir: dir}
}

type screenshotInput struct {
	Display int `json:"display,omitempty"`
}

func (t *ScreenshotTool) Name() string { return "screenshot" }

func (t *ScreenshotTool) Description() string {
	return "Capture a screenshot of a display and save it as a PNG file."
}

func (t *ScreenshotTool) Schema() json.RawMessage {
	return mustSchema(`{
		"type": "object",
		"properties": {
			"display": {"type": "integer", "description": "Display index (default 0)"}
		}
	}`)
}

func (t *ScreenshotTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in screenshotInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return Errorf("invalid screenshot input: %v", err), nil
		}
	}

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return Errorf("no active displays found"), nil
	}
	if in.Display < 0 || in.Display >= n {
		return Errorf("display %d out of range, %d display(s) available", in.Display, n), nil
	}

	bounds := screenshot.GetDisplayBounds(in.Display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return Errorf("capture display %d: %v", in.Display, err), nil
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return Errorf("create screenshot dir: %v", err), nil
	}
	path := filepath.Join(t.dir, fmt.Sprintf("screenshot-%d.png", time.Now().UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		return Errorf("create %s: %v", path, err), nil
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return Errorf("encode png: %v", err), nil
	}

	return &Result{
		Success:  true,
		Output:   fmt.Sprintf("captured display %d (%dx%d) to %s", in.Display, bounds.Dx(), bounds.Dy(), path),
		Artifact: path,
		Metadata: map[string]any{"width": bounds.Dx(), "height": bounds.Dy()},
	}, nil
}
