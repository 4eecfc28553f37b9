package stages

import (
	"encoding/json"
	"fmt"
)

func charactersJSON(chars []CharacterBrief) string {
	if len(chars) == 0 {
		return "[]"
	}
	b, err := json.Marshal(chars)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func storyPrompt(in StoryInput) string {
	return fmt.Sprintf(`You are a world-class Anime Director and Screenwriter.
Generate a full, structured story for a %d minute anime episode based on the following concept:

CONCEPT: "%s"
STYLE: "%s"

You must output strictly valid JSON with this structure:
{
  "title": "Episode Title",
  "logline": "One sentence summary",
  "theme": "Core theme",
  "setting": "World description",
  "style": "%s",
  "characters": [
    {"name": "Name", "role": "Protagonist/Antagonist/Support", "description": "Physical appearance", "personality": "Traits", "visual_style": "Clothing/Colors", "voice_style": "Tone/Pitch"}
  ],
  "scenes": [
    {"scene_id": "SCENE-01", "title": "Scene Title", "summary": "What happens", "location": "Specific place", "time_of_day": "Day/Night"}
  ]
}

REQUIREMENTS:
- Create at least 3 main characters.
- Create at least 5 scenes.
- Use cinematic camera language.
- Ensure the JSON is valid and parseable.`,
		in.DurationMinutes, in.Concept, in.Style, in.Style)
}

func breakdownPrompt(in BreakdownInput) string {
	return fmt.Sprintf(`You are a world-class Anime Director and Cinematographer.
Break down the following scene into a detailed, cinematic shot list.

SCENE SUMMARY: "%s"
CHARACTERS: %s
STYLE: "%s"

INSTRUCTIONS:
- Break the scene into 8-15 cinematic shots.
- Include shot type (wide, mid, close-up, extreme close-up).
- Include lens choice (e.g. 24mm, 35mm, 50mm, 85mm).
- Include camera movement (pan, tilt, dolly, crane, handheld).
- Include environment details, lighting, and mood.
- Define color palette and emotion for each shot.
- Include transition notes between shots.
- Return STRICT JSON following this schema:
{
  "shots": [
    {"shot_id": "SHOT-01", "type": "Wide/Mid/Close-up", "lens": "35mm", "camera_movement": "Dolly In", "environment": "Background/setting", "lighting": "Lighting setup", "action": "What happens", "emotion": "Emotional tone", "color_palette": "Dominant colors", "transition": "Cut/Dissolve/Fade", "prompt": "Image generation prompt for this shot"}
  ]
}`,
		in.SceneSummary, charactersJSON(in.Characters), in.Style)
}

func keyframePrompt(in KeyframeInput) string {
	return fmt.Sprintf(`You are a world-class Anime Concept Artist and Cinematographer.
Create a highly detailed, camera-aware, cinematic anime keyframe prompt for the following shot.

SHOT DETAILS:
Type: %s
Camera: %s
Action: %s
Original Prompt: %s

STYLE: "%s"
CHARACTERS: %s

INSTRUCTIONS:
- Create a prompt optimized for Flux.1-dev / Niji style generation.
- Focus on visual details: lighting, composition, lens effects, color grading.
- Describe character pose, expression, and outfit based on the character data.
- Describe the environment and background.
- Only a single keyframe description, not a full scene script.
- Output STRICT JSON:
{"positive": "...", "negative": "...", "camera": "...", "lens": "...", "lighting": "...", "style": "...", "details": "..."}`,
		in.ShotType, in.Camera, in.Action, in.Prompt, in.Style, charactersJSON(in.Characters))
}

func animationPrompt(in AnimationInput) string {
	return fmt.Sprintf(`You are a world-class Anime Animation Director.
Create a video-generation-ready prompt for the following shot, based on the keyframe and shot details.

SHOT DETAILS:
Camera Movement: %s
Action: %s

KEYFRAME PROMPT: "%s"
STYLE: "%s"

INSTRUCTIONS:
- Translate the static keyframe description into a dynamic motion description.
- Preserve character identity, outfit, and style from the keyframe.
- Add specific motion beats (hair blowing, clothing movement, particle effects).
- Create a refined prompt suitable for %s.
- Output STRICT JSON:
{"positive": "...", "negative": "...", "motion": "...", "camera": "...", "lighting": "...", "style": "...", "easing": "...", "details": "..."}`,
		in.Camera, in.Action, in.KeyframePrompt, in.Style, in.Model)
}

func voicePrompt(in VoiceInput) string {
	return fmt.Sprintf(`You are an expert Voice Director.
Generate a detailed emotional profile and TTS prompt for the following line of dialogue.

CHARACTER: %s
TEXT: "%s"
EMOTION: "%s"

INSTRUCTIONS:
- Determine the appropriate pitch, speed, and intensity.
- Describe the speaking style (whisper, shout, shaky, confident).
- Output STRICT JSON:
{"emotion_profile": {"primary_emotion": "...", "intensity": 0.8, "pitch": "high/medium/low", "speed": "fast/medium/slow"}, "tts_prompt": "How the line should be read"}`,
		in.Character, in.Text, in.Emotion)
}

func sfxPrompt(action string) string {
	return fmt.Sprintf(`You are an expert Sound Designer.
List the sound effects needed for the following action.

ACTION: "%s"

INSTRUCTIONS:
- Identify all necessary sound effects (footsteps, impacts, ambience).
- Output STRICT JSON:
{"sfx_list": [{"name": "footsteps_concrete", "type": "foley", "description": "Heavy boots walking on concrete"}]}`,
		action)
}

func bgmPrompt(mood, pacing string) string {
	return fmt.Sprintf(`You are a world-class Anime Music Composer.
Compose a background music track for a scene.

MOOD: "%s"
PACING: "%s"

INSTRUCTIONS:
- Describe the instrumentation, tempo, and musical style.
- Output STRICT JSON:
{"genre": "...", "tempo": 120, "instruments": ["piano", "violin"], "description": "Full musical description"}`,
		mood, pacing)
}
