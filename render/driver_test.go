package render

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

type captureUploader struct {
	filename string
	size     int
}

func (c *captureUploader) UploadPublic(ctx context.Context, filename string, data []byte, contentType string) (*storage.PutResult, error) {
	c.filename = filename
	c.size = len(data)
	return &storage.PutResult{Key: filename, URL: "https://cdn.test/" + filename}, nil
}

func onePlan() timeline.RenderPlan {
	return timeline.Compile(timeline.Input{
		Scenes: []timeline.Scene{{
			ID:    "SCENE-01",
			Shots: []timeline.Shot{{ID: "SHOT-01", Duration: 0.2}},
		}},
	})
}

func TestRenderEmptyPlanFails(t *testing.T) {
	d := &Driver{FFmpeg: "false", Store: &captureUploader{}}

	_, err := d.Render(context.Background(), "t1", timeline.RenderPlan{Resolution: "64x64", FPS: 24})
	var rErr *RenderError
	if !errors.As(err, &rErr) {
		t.Fatalf("want RenderError, got %v", err)
	}
	if rErr.Step != "encode" {
		t.Errorf("step = %q", rErr.Step)
	}
}

func TestRenderEncoderFailureCleansScratch(t *testing.T) {
	// "false" exits non-zero immediately, standing in for a broken encoder.
	d := &Driver{FFmpeg: "false", Store: &captureUploader{}}

	before := scratchDirs(t)
	_, err := d.Render(context.Background(), "t2", onePlan())
	var rErr *RenderError
	if !errors.As(err, &rErr) {
		t.Fatalf("want RenderError, got %v", err)
	}
	after := scratchDirs(t)
	if len(after) > len(before) {
		t.Errorf("scratch dirs leaked: %v", after)
	}
}

func TestRenderMissingEncoderBinary(t *testing.T) {
	d := &Driver{FFmpeg: "definitely-not-a-real-binary", Store: &captureUploader{}}

	_, err := d.Render(context.Background(), "t3", onePlan())
	var rErr *RenderError
	if !errors.As(err, &rErr) {
		t.Fatalf("want RenderError, got %v", err)
	}
}

func TestRenderEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	up := &captureUploader{}
	d := &Driver{FFmpeg: "ffmpeg", Store: up}

	plan := timeline.Compile(timeline.Input{
		Resolution: "64x64",
		Scenes: []timeline.Scene{{
			ID: "SCENE-01",
			Shots: []timeline.Shot{
				{ID: "SHOT-01", Duration: 0.2},
				{ID: "SHOT-02", Duration: 0.2},
			},
		}},
	})

	result, err := d.Render(context.Background(), "e2e", plan)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.URL != "https://cdn.test/render_e2e.mp4" {
		t.Errorf("url = %q", result.URL)
	}
	if up.size == 0 {
		t.Error("uploaded file is empty")
	}
	if result.Duration != plan.TotalDuration {
		t.Errorf("duration = %v", result.Duration)
	}
	if len(result.Logs) == 0 {
		t.Error("no render logs")
	}
}

func scratchDirs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "omniai-render-") {
			dirs = append(dirs, filepath.Join(os.TempDir(), e.Name()))
		}
	}
	return dirs
}
