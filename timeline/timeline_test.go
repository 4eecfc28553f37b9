package timeline

import (
	"reflect"
	"testing"
)

func twoShotInput() Input {
	return Input{
		Scenes: []Scene{{
			ID: "SCENE-01",
			Shots: []Shot{
				{ID: "SHOT-01", Blocks: []Block{{Source: "a.mp4", Duration: 3.0}}},
				{ID: "SHOT-02", Blocks: []Block{{Source: "b.mp4", Duration: 3.0}}},
			},
		}},
	}
}

func TestCompileContiguousSegments(t *testing.T) {
	plan := Compile(twoShotInput())

	if len(plan.Segments) != 2 {
		t.Fatalf("got %d segments", len(plan.Segments))
	}
	first, second := plan.Segments[0], plan.Segments[1]
	if first.Start != 0 || first.End != 3.0 {
		t.Errorf("first segment [%v, %v)", first.Start, first.End)
	}
	if second.Start != 3.0 || second.End != 6.0 {
		t.Errorf("second segment [%v, %v)", second.Start, second.End)
	}
	if plan.TotalDuration != 6.0 {
		t.Errorf("total duration = %v", plan.TotalDuration)
	}
	if first.Kind != AnimationBlock {
		t.Errorf("kind = %v", first.Kind)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	a := Compile(twoShotInput())
	b := Compile(twoShotInput())
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different plans")
	}
}

func TestCompileStaticShotDefaults(t *testing.T) {
	plan := Compile(Input{
		Scenes: []Scene{{
			ID:    "SCENE-01",
			Shots: []Shot{{ID: "SHOT-01"}},
		}},
	})

	if len(plan.Segments) != 1 {
		t.Fatalf("got %d segments", len(plan.Segments))
	}
	seg := plan.Segments[0]
	if seg.Kind != StaticShot {
		t.Errorf("kind = %v", seg.Kind)
	}
	if seg.Duration != DefaultShotSeconds {
		t.Errorf("duration = %v", seg.Duration)
	}
	if seg.Source != "shot_SHOT-01" {
		t.Errorf("source = %q", seg.Source)
	}
}

func TestCompileShotSecondsOverride(t *testing.T) {
	plan := Compile(Input{
		ShotSeconds: 4.5,
		Scenes: []Scene{{
			ID:    "SCENE-01",
			Shots: []Shot{{ID: "SHOT-01"}},
		}},
	})
	if plan.TotalDuration != 4.5 {
		t.Errorf("total duration = %v", plan.TotalDuration)
	}
}

func TestCompileEmptyInput(t *testing.T) {
	plan := Compile(Input{})

	if len(plan.Segments) != 0 {
		t.Errorf("segments = %+v", plan.Segments)
	}
	if plan.TotalDuration != 0 {
		t.Errorf("total duration = %v", plan.TotalDuration)
	}
	if plan.Resolution != "1920x1080" || plan.FPS != 24 {
		t.Errorf("defaults = %s @ %d", plan.Resolution, plan.FPS)
	}
	if plan.Transitions == nil || len(plan.Transitions) != 0 {
		t.Errorf("transitions = %v", plan.Transitions)
	}
}

func TestCompileAudioKeepsDeclaredPlacement(t *testing.T) {
	plan := Compile(Input{
		Scenes: []Scene{{
			ID:    "SCENE-01",
			Shots: []Shot{{ID: "SHOT-01", Duration: 1.0}},
		}},
		AudioLayers: []AudioLayer{
			{Kind: "voice", Tracks: []AudioTrack{{Source: "v.wav", Start: 2.5, Duration: 1.2}}},
			{Kind: "bgm", Tracks: []AudioTrack{{Source: "m.mp3", Volume: 0.3}}},
		},
	})

	if len(plan.AudioMix) != 2 {
		t.Fatalf("got %d audio tracks", len(plan.AudioMix))
	}
	voice := plan.AudioMix[0]
	if voice.Start != 2.5 || voice.Kind != "voice" {
		t.Errorf("voice track = %+v", voice)
	}
	if voice.Volume != 1.0 {
		t.Errorf("default volume = %v", voice.Volume)
	}
	bgm := plan.AudioMix[1]
	if bgm.Volume != 0.3 {
		t.Errorf("bgm volume = %v", bgm.Volume)
	}
	// Audio start times are independent of the video cursor even when they
	// run past the last segment.
	if plan.TotalDuration != 1.0 {
		t.Errorf("total duration = %v", plan.TotalDuration)
	}
}

func TestCompileMixedScenes(t *testing.T) {
	plan := Compile(Input{
		Scenes: []Scene{
			{ID: "SCENE-01", Shots: []Shot{
				{ID: "SHOT-01", Blocks: []Block{
					{Source: "a1.mp4", Duration: 2.0},
					{Source: "a2.mp4", Duration: 1.5},
				}},
			}},
			{ID: "SCENE-02", Shots: []Shot{
				{ID: "SHOT-01", Duration: 0.5},
			}},
		},
	})

	if len(plan.Segments) != 3 {
		t.Fatalf("got %d segments", len(plan.Segments))
	}
	for i := 1; i < len(plan.Segments); i++ {
		if plan.Segments[i].Start != plan.Segments[i-1].End {
			t.Errorf("gap between segment %d and %d", i-1, i)
		}
	}
	if plan.TotalDuration != 4.0 {
		t.Errorf("total duration = %v", plan.TotalDuration)
	}
	last := plan.Segments[2]
	if last.SceneID != "SCENE-02" || last.Kind != StaticShot {
		t.Errorf("last segment = %+v", last)
	}
}
