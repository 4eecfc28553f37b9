package stages

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Stage names, used in parse errors and orchestrator logs.
const (
	StageStory     = "story"
	StageBreakdown = "breakdown"
	StageKeyframe  = "keyframe"
	StageAnimation = "animation"
	StageVoice     = "voice"
	StageSFX       = "sfx"
	StageBGM       = "bgm"
)

// Engine holds the generation stage adapters. Each adapter turns a
// stage-specific input into a validated structured output via the primary
// generator, with the fixer issuing repair calls for the stages that need
// strict schema conformance. Adapters never touch the asset store.
type Engine struct {
	llm   TextGenerator
	fixer TextGenerator
}

func NewEngine(llm, fixer TextGenerator) *Engine {
	if fixer == nil {
		fixer = llm
	}
	return &Engine{llm: llm, fixer: fixer}
}

// GenerateStory expands a concept into a titled story with characters and
// ordered scenes.
func (e *Engine) GenerateStory(ctx context.Context, in StoryInput) (*StoryOutline, error) {
	if strings.TrimSpace(in.Concept) == "" {
		return nil, fmt.Errorf("story concept is required")
	}

	raw, err := e.llm.Generate(ctx, storyPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("story generation call: %w", err)
	}

	outline, err := extract(StageStory, raw, func(v *StoryOutline) bool {
		return v.Title != "" && len(v.Scenes) > 0
	})
	if err != nil {
		return nil, err
	}
	if outline.Style == "" {
		outline.Style = in.Style
	}
	return outline, nil
}

// BreakdownScene turns a scene summary into a cinematic shot list. The
// response goes through a repair call before parsing; if the repaired output
// fails, the original response is re-parsed before giving up.
func (e *Engine) BreakdownScene(ctx context.Context, in BreakdownInput) (*ShotBreakdown, error) {
	raw, err := e.llm.Generate(ctx, breakdownPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("breakdown generation call: %w", err)
	}

	breakdown, err := extractWithRepair(ctx, e.fixer, StageBreakdown, raw, func(v *ShotBreakdown) bool {
		return len(v.Shots) > 0
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Breakdown produced %d shots", len(breakdown.Shots))
	return breakdown, nil
}

// GenerateKeyframePrompt produces an image-generation prompt for one shot.
func (e *Engine) GenerateKeyframePrompt(ctx context.Context, in KeyframeInput) (*KeyframePrompt, error) {
	raw, err := e.llm.Generate(ctx, keyframePrompt(in))
	if err != nil {
		return nil, fmt.Errorf("keyframe generation call: %w", err)
	}

	return extractWithRepair(ctx, e.fixer, StageKeyframe, raw, func(v *KeyframePrompt) bool {
		return v.Positive != ""
	})
}

// GenerateAnimationPrompt produces a video-generation prompt for one shot,
// anchored on its keyframe prompt.
func (e *Engine) GenerateAnimationPrompt(ctx context.Context, in AnimationInput) (*AnimationPrompt, error) {
	raw, err := e.llm.Generate(ctx, animationPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("animation generation call: %w", err)
	}

	return extractWithRepair(ctx, e.fixer, StageAnimation, raw, func(v *AnimationPrompt) bool {
		return v.Positive != ""
	})
}

// GenerateVoiceDirection analyzes a dialogue line into an emotion profile and
// TTS prompt. Parse failures degrade to a bare reading of the input text
// rather than aborting the run.
func (e *Engine) GenerateVoiceDirection(ctx context.Context, in VoiceInput) (*VoiceDirection, error) {
	raw, err := e.llm.Generate(ctx, voicePrompt(in))
	if err != nil {
		return nil, fmt.Errorf("voice generation call: %w", err)
	}

	direction, err := extract(StageVoice, raw, func(v *VoiceDirection) bool {
		return v.TTSPrompt != ""
	})
	if err != nil {
		log.Printf("Voice direction parse failed, using plain reading: %v", err)
		return &VoiceDirection{EmotionProfile: map[string]interface{}{}, TTSPrompt: in.Text}, nil
	}
	return direction, nil
}

// GenerateSFXList lists the sound effects an action calls for. A parse
// failure yields a single default effect describing the action.
func (e *Engine) GenerateSFXList(ctx context.Context, action string) (*SFXPlan, error) {
	raw, err := e.llm.Generate(ctx, sfxPrompt(action))
	if err != nil {
		return nil, fmt.Errorf("sfx generation call: %w", err)
	}

	plan, err := extract(StageSFX, raw, func(v *SFXPlan) bool {
		return len(v.SFXList) > 0
	})
	if err != nil {
		log.Printf("SFX plan parse failed, using default effect: %v", err)
		return &SFXPlan{SFXList: []SFXDef{{Name: "default_sfx", Description: action}}}, nil
	}
	return plan, nil
}

// GenerateBGMSpec describes a background music track for a scene mood.
func (e *Engine) GenerateBGMSpec(ctx context.Context, mood, pacing string) (*BGMSpec, error) {
	raw, err := e.llm.Generate(ctx, bgmPrompt(mood, pacing))
	if err != nil {
		return nil, fmt.Errorf("bgm generation call: %w", err)
	}

	spec, err := extract(StageBGM, raw, func(v *BGMSpec) bool {
		return v.Description != ""
	})
	if err != nil {
		log.Printf("BGM spec parse failed, using mood description: %v", err)
		return &BGMSpec{Description: fmt.Sprintf("%s music with %s pacing", mood, pacing)}, nil
	}
	return spec, nil
}
