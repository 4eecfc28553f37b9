package stages

import (
	"context"
	"errors"
	"testing"
)

func TestGenerateStoryRequiresConcept(t *testing.T) {
	e := NewEngine(&fakeGenerator{}, nil)
	if _, err := e.GenerateStory(context.Background(), StoryInput{Concept: "  "}); err == nil {
		t.Fatal("expected error for empty concept")
	}
}

func TestGenerateStoryParsesOutline(t *testing.T) {
	llm := &fakeGenerator{responses: []string{`{
		"title": "The Last Lighthouse",
		"logline": "A keeper guards the coast alone.",
		"scenes": [{"scene_id": "SCENE-01", "title": "Arrival", "summary": "The keeper arrives."}]
	}`}}
	e := NewEngine(llm, nil)

	outline, err := e.GenerateStory(context.Background(), StoryInput{Concept: "lighthouse keeper", Style: "Noir"})
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if outline.Title != "The Last Lighthouse" {
		t.Errorf("title = %q", outline.Title)
	}
	if outline.Style != "Noir" {
		t.Errorf("style fallback = %q", outline.Style)
	}
	if len(outline.Scenes) != 1 || outline.Scenes[0].SceneID != "SCENE-01" {
		t.Errorf("scenes = %+v", outline.Scenes)
	}
}

func TestGenerateStoryHardFailsOnGarbage(t *testing.T) {
	e := NewEngine(&fakeGenerator{responses: []string{"not json"}}, nil)

	_, err := e.GenerateStory(context.Background(), StoryInput{Concept: "x"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if parseErr.Stage != StageStory {
		t.Errorf("stage = %q", parseErr.Stage)
	}
}

func TestBreakdownSceneRepairsResponse(t *testing.T) {
	llm := &fakeGenerator{responses: []string{"the shots are as follows..."}}
	fixer := &fakeGenerator{responses: []string{`{"shots": [{"shot_id": "SHOT-01", "type": "Wide", "action": "Pan across the bay"}]}`}}
	e := NewEngine(llm, fixer)

	breakdown, err := e.BreakdownScene(context.Background(), BreakdownInput{SceneSummary: "opening"})
	if err != nil {
		t.Fatalf("BreakdownScene: %v", err)
	}
	if len(breakdown.Shots) != 1 || breakdown.Shots[0].ShotID != "SHOT-01" {
		t.Errorf("shots = %+v", breakdown.Shots)
	}
	if len(fixer.prompts) != 1 {
		t.Errorf("fixer called %d times", len(fixer.prompts))
	}
}

func TestGenerateVoiceDirectionDegradesToPlainReading(t *testing.T) {
	e := NewEngine(&fakeGenerator{responses: []string{"not parseable"}}, &fakeGenerator{responses: []string{"also bad"}})

	direction, err := e.GenerateVoiceDirection(context.Background(), VoiceInput{
		Character: "Mira", Text: "We have to go back.", Emotion: "urgent",
	})
	if err != nil {
		t.Fatalf("GenerateVoiceDirection: %v", err)
	}
	if direction.TTSPrompt != "We have to go back." {
		t.Errorf("tts prompt = %q", direction.TTSPrompt)
	}
}

func TestGenerateSFXListDefaultsOnParseFailure(t *testing.T) {
	e := NewEngine(&fakeGenerator{responses: []string{"hmm"}}, nil)

	plan, err := e.GenerateSFXList(context.Background(), "door slams shut")
	if err != nil {
		t.Fatalf("GenerateSFXList: %v", err)
	}
	if len(plan.SFXList) != 1 || plan.SFXList[0].Name != "default_sfx" {
		t.Errorf("plan = %+v", plan)
	}
	if plan.SFXList[0].Description != "door slams shut" {
		t.Errorf("description = %q", plan.SFXList[0].Description)
	}
}

func TestGenerateBGMSpecDefaultsOnParseFailure(t *testing.T) {
	e := NewEngine(&fakeGenerator{responses: []string{"hmm"}}, nil)

	spec, err := e.GenerateBGMSpec(context.Background(), "melancholy", "slow")
	if err != nil {
		t.Fatalf("GenerateBGMSpec: %v", err)
	}
	if spec.Description != "melancholy music with slow pacing" {
		t.Errorf("description = %q", spec.Description)
	}
}
