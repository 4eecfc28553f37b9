// Package timeline deterministically assembles generated clips and audio
// layers into a time-ordered render plan. Compilation is a pure function of
// its input: the same scenes, shots, and audio layers always yield the same
// plan.
package timeline

// DefaultShotSeconds is the duration of a static shot (or an animation block
// with no declared duration) when the caller does not override it.
const DefaultShotSeconds = 2.0

type SegmentKind string

const (
	StaticShot     SegmentKind = "static_shot"
	AnimationBlock SegmentKind = "animation_block"
)

// Segment is one [Start, End) interval of the compiled timeline.
type Segment struct {
	Kind         SegmentKind `json:"type"`
	SceneID      string      `json:"scene_id"`
	ShotID       string      `json:"shot_id"`
	Source       string      `json:"source"`
	Start        float64     `json:"start_time"`
	End          float64     `json:"end_time"`
	Duration     float64     `json:"duration"`
	FromKeyframe string      `json:"from_keyframe,omitempty"`
	ToKeyframe   string      `json:"to_keyframe,omitempty"`
	Motion       string      `json:"motion,omitempty"`
	Camera       string      `json:"camera,omitempty"`
	Easing       string      `json:"easing,omitempty"`
}

// AudioTrack carries its own declared placement; compilation does not align
// audio to the video cursor.
type AudioTrack struct {
	Source   string  `json:"source"`
	Start    float64 `json:"start_time"`
	Duration float64 `json:"duration"`
	Volume   float64 `json:"volume"`
	Kind     string  `json:"type"` // voice|sfx|bgm
}

// Block is one animation block within a shot, with an explicit duration.
type Block struct {
	FromKeyframe string
	ToKeyframe   string
	Duration     float64
	Motion       string
	Camera       string
	Easing       string
	Source       string
}

type Shot struct {
	ID       string
	Source   string
	Duration float64 // used only when the shot has no blocks; 0 means default
	Blocks   []Block
}

type Scene struct {
	ID    string
	Shots []Shot
}

type AudioLayer struct {
	Kind   string // voice|sfx|bgm
	Tracks []AudioTrack
}

// Input is everything compilation needs. Zero scenes is valid and yields an
// empty plan.
type Input struct {
	Scenes      []Scene
	AudioLayers []AudioLayer
	Resolution  string
	FPS         int
	// ShotSeconds overrides DefaultShotSeconds when > 0.
	ShotSeconds float64
}

// RenderPlan is the durable output of compilation, consumed by the render
// driver.
type RenderPlan struct {
	Segments      []Segment    `json:"video_segments"`
	AudioMix      []AudioTrack `json:"audio_mix"`
	Transitions   []string     `json:"transitions"` // not computed yet, always empty
	TotalDuration float64      `json:"total_duration"`
	Resolution    string       `json:"resolution"`
	FPS           int          `json:"fps"`
}

// Compile merges scenes, shots, and animation blocks into contiguous
// time-stamped segments with a single forward cursor pass, and flattens
// audio layers into one mix list.
func Compile(in Input) RenderPlan {
	defaultDur := in.ShotSeconds
	if defaultDur <= 0 {
		defaultDur = DefaultShotSeconds
	}

	resolution := in.Resolution
	if resolution == "" {
		resolution = "1920x1080"
	}
	fps := in.FPS
	if fps <= 0 {
		fps = 24
	}

	segments := []Segment{}
	t := 0.0

	for _, scene := range in.Scenes {
		for _, shot := range scene.Shots {
			if len(shot.Blocks) == 0 {
				dur := shot.Duration
				if dur <= 0 {
					dur = defaultDur
				}
				source := shot.Source
				if source == "" {
					source = "shot_" + shot.ID
				}
				segments = append(segments, Segment{
					Kind:     StaticShot,
					SceneID:  scene.ID,
					ShotID:   shot.ID,
					Source:   source,
					Start:    t,
					End:      t + dur,
					Duration: dur,
				})
				t += dur
				continue
			}

			for _, block := range shot.Blocks {
				dur := block.Duration
				if dur <= 0 {
					dur = defaultDur
				}
				source := block.Source
				if source == "" {
					source = "anim_" + block.FromKeyframe + "_" + block.ToKeyframe
				}
				segments = append(segments, Segment{
					Kind:         AnimationBlock,
					SceneID:      scene.ID,
					ShotID:       shot.ID,
					Source:       source,
					Start:        t,
					End:          t + dur,
					Duration:     dur,
					FromKeyframe: block.FromKeyframe,
					ToKeyframe:   block.ToKeyframe,
					Motion:       block.Motion,
					Camera:       block.Camera,
					Easing:       block.Easing,
				})
				t += dur
			}
		}
	}

	mix := []AudioTrack{}
	for _, layer := range in.AudioLayers {
		for _, track := range layer.Tracks {
			out := track
			if out.Kind == "" {
				out.Kind = layer.Kind
			}
			if out.Volume == 0 {
				out.Volume = 1.0
			}
			mix = append(mix, out)
		}
	}

	return RenderPlan{
		Segments:      segments,
		AudioMix:      mix,
		Transitions:   []string{},
		TotalDuration: t,
		Resolution:    resolution,
		FPS:           fps,
	}
}
