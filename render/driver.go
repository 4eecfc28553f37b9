// Package render turns a compiled render plan into one playable video file:
// per-segment encodes, an audio mix, a concat+mux pass, and an upload to
// durable storage.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/timeline"
)

// RenderError means the external encoder exited non-zero. It carries the
// encoder's diagnostic output.
type RenderError struct {
	Step   string
	Stderr string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render step %s failed: %v", e.Step, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Uploader is the slice of the object-storage client the driver needs.
type Uploader interface {
	UploadPublic(ctx context.Context, filename string, data []byte, contentType string) (*storage.PutResult, error)
}

// Result reports one completed render.
type Result struct {
	TaskID   string   `json:"task_id"`
	URL      string   `json:"url"`
	Key      string   `json:"key"`
	Duration float64  `json:"duration"`
	Logs     []string `json:"logs,omitempty"`
}

// Driver invokes the external encoder for each plan segment, mixes the audio
// layers, and muxes the result. Each render runs in a freshly created scratch
// directory that is removed on every exit path.
type Driver struct {
	FFmpeg string // encoder binary, "ffmpeg" by default
	Store  Uploader
}

func NewDriver(store Uploader) *Driver {
	bin := os.Getenv("FFMPEG_BIN")
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Driver{FFmpeg: bin, Store: store}
}

// Render materializes the plan into a single uploaded video. On failure the
// returned error wraps the encoder diagnostics; the scratch directory is
// removed either way.
func (d *Driver) Render(ctx context.Context, taskID string, plan timeline.RenderPlan) (*Result, error) {
	scratch, err := os.MkdirTemp("", "omniai-render-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	var logs []string
	logf := func(format string, args ...interface{}) {
		line := fmt.Sprintf(format, args...)
		log.Printf("[render %s] %s", taskID, line)
		logs = append(logs, line)
	}

	logf("Scratch dir: %s", scratch)

	// 1. Encode each video segment.
	var parts []string
	for i, seg := range plan.Segments {
		part := filepath.Join(scratch, fmt.Sprintf("part_%03d.mp4", i))
		if err := d.encodeSegment(ctx, seg, plan, part); err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	logf("Encoded %d segments", len(parts))

	if len(parts) == 0 {
		return nil, &RenderError{Step: "encode", Err: fmt.Errorf("plan has no video segments")}
	}

	// 2. Mix all audio tracks into one track of the plan's total duration.
	audioPath := filepath.Join(scratch, "audio_mixed.m4a")
	if err := d.mixAudio(ctx, plan, scratch, audioPath); err != nil {
		return nil, err
	}
	logf("Audio mix ready")

	// 3. Concatenate segments and mux with the audio track.
	finalPath := filepath.Join(scratch, "final_output.mp4")
	if err := d.concatAndMux(ctx, parts, audioPath, scratch, finalPath); err != nil {
		return nil, err
	}
	logf("Final encode complete")

	// 4. Upload.
	data, err := os.ReadFile(finalPath)
	if err != nil {
		return nil, fmt.Errorf("read rendered file: %w", err)
	}
	put, err := d.Store.UploadPublic(ctx, fmt.Sprintf("render_%s.mp4", taskID), data, "video/mp4")
	if err != nil {
		return nil, err
	}
	logf("Uploaded %s", put.Key)

	return &Result{
		TaskID:   taskID,
		URL:      put.URL,
		Key:      put.Key,
		Duration: plan.TotalDuration,
		Logs:     logs,
	}, nil
}

// encodeSegment materializes one segment to a local file. Until real clip
// sources are downloadable this encodes a synthetic color clip of the
// segment's duration, which keeps the concat and mux paths honest.
func (d *Driver) encodeSegment(ctx context.Context, seg timeline.Segment, plan timeline.RenderPlan, outPath string) error {
	color := "black"
	if seg.Kind == timeline.AnimationBlock {
		color = "0x202040"
	}

	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=%s:s=%s:d=%.3f", color, plan.Resolution, seg.Duration),
		"-r", fmt.Sprintf("%d", plan.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outPath,
	}
	return d.run(ctx, "encode_segment", args)
}

// mixAudio produces one audio track of the plan's duration: silence when the
// mix list is empty, otherwise each track delayed to its declared start and
// mixed at its declared volume.
func (d *Driver) mixAudio(ctx context.Context, plan timeline.RenderPlan, scratch, outPath string) error {
	duration := plan.TotalDuration
	if duration <= 0 {
		duration = 0.1
	}

	local := d.fetchAudioSources(ctx, plan.AudioMix, scratch)
	if len(local) == 0 {
		args := []string{
			"-f", "lavfi",
			"-i", "anullsrc=r=44100:cl=stereo",
			"-t", fmt.Sprintf("%.3f", duration),
			"-c:a", "aac",
			outPath,
		}
		return d.run(ctx, "mix_audio", args)
	}

	// Silence base keeps the mix at full plan duration even when all tracks
	// end early.
	args := []string{"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=44100:cl=stereo:d=%.3f", duration)}
	var filters []string
	var mixIn []string
	mixIn = append(mixIn, "[0:a]")
	for i, t := range local {
		args = append(args, "-i", t.path)
		delayMs := int(t.track.Start * 1000)
		filters = append(filters, fmt.Sprintf("[%d:a]adelay=%d|%d,volume=%.2f[t%d]", i+1, delayMs, delayMs, t.track.Volume, i+1))
		mixIn = append(mixIn, fmt.Sprintf("[t%d]", i+1))
	}

	filterComplex := strings.Join(filters, ";") + ";" +
		strings.Join(mixIn, "") +
		fmt.Sprintf("amix=inputs=%d:duration=first:normalize=0[aout]", len(mixIn))

	args = append(args,
		"-filter_complex", filterComplex,
		"-map", "[aout]",
		"-c:a", "aac",
		outPath,
	)
	return d.run(ctx, "mix_audio", args)
}

type localTrack struct {
	track timeline.AudioTrack
	path  string
}

// fetchAudioSources downloads http(s) track sources into the scratch dir.
// Tracks that cannot be fetched are skipped with a log line; the mix carries
// on with whatever arrived.
func (d *Driver) fetchAudioSources(ctx context.Context, tracks []timeline.AudioTrack, scratch string) []localTrack {
	var out []localTrack
	for i, t := range tracks {
		if t.Source == "" {
			continue
		}
		if !strings.HasPrefix(t.Source, "http://") && !strings.HasPrefix(t.Source, "https://") {
			if _, err := os.Stat(t.Source); err == nil {
				out = append(out, localTrack{track: t, path: t.Source})
			}
			continue
		}
		path := filepath.Join(scratch, fmt.Sprintf("audio_%03d%s", i, filepath.Ext(t.Source)))
		if err := downloadFile(ctx, t.Source, path); err != nil {
			log.Printf("Skipping audio track %s: %v", t.Source, err)
			continue
		}
		out = append(out, localTrack{track: t, path: path})
	}
	return out
}

func downloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// concatAndMux joins the segment files in order and muxes the audio track,
// trimming to the shorter stream.
func (d *Driver) concatAndMux(ctx context.Context, parts []string, audioPath, scratch, outPath string) error {
	listFile := filepath.Join(scratch, "concat.txt")
	var lines []string
	for _, p := range parts {
		lines = append(lines, fmt.Sprintf("file '%s'", strings.ReplaceAll(p, "\\", "/")))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-i", audioPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
	return d.run(ctx, "concat_mux", args)
}

// run executes one encoder invocation. A non-zero exit aborts the render
// with the captured stderr.
func (d *Driver) run(ctx context.Context, step string, args []string) error {
	full := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, d.FFmpeg, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &RenderError{Step: step, Stderr: stderr.String(), Err: err}
	}
	return nil
}
