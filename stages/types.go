package stages

// Structured outputs each stage must coerce the model's response into.
// jsonschema_description tags feed the reflected schema that repair calls
// are asked to conform to.

type StoryOutline struct {
	Title      string         `json:"title" jsonschema_description:"Episode title"`
	Logline    string         `json:"logline" jsonschema_description:"One sentence summary"`
	Theme      string         `json:"theme" jsonschema_description:"Core theme"`
	Setting    string         `json:"setting" jsonschema_description:"World description"`
	Style      string         `json:"style"`
	Characters []CharacterDef `json:"characters"`
	Scenes     []SceneDef     `json:"scenes"`
}

type CharacterDef struct {
	Name        string `json:"name"`
	Role        string `json:"role" jsonschema_description:"Protagonist/Antagonist/Support"`
	Description string `json:"description" jsonschema_description:"Physical appearance"`
	Personality string `json:"personality"`
	VisualStyle string `json:"visual_style" jsonschema_description:"Clothing/Colors"`
	VoiceStyle  string `json:"voice_style" jsonschema_description:"Tone/Pitch"`
}

type SceneDef struct {
	SceneID   string `json:"scene_id" jsonschema_description:"e.g. SCENE-01"`
	Title     string `json:"title"`
	Summary   string `json:"summary" jsonschema_description:"What happens"`
	Location  string `json:"location"`
	TimeOfDay string `json:"time_of_day" jsonschema_description:"Day/Night"`
}

type ShotBreakdown struct {
	Shots []ShotDef `json:"shots"`
}

type ShotDef struct {
	ShotID         string `json:"shot_id" jsonschema_description:"e.g. SHOT-01"`
	Type           string `json:"type" jsonschema_description:"Wide/Mid/Close-up"`
	Lens           string `json:"lens" jsonschema_description:"e.g. 35mm"`
	CameraMovement string `json:"camera_movement" jsonschema_description:"e.g. Dolly In"`
	Environment    string `json:"environment"`
	Lighting       string `json:"lighting"`
	Action         string `json:"action"`
	Emotion        string `json:"emotion"`
	ColorPalette   string `json:"color_palette"`
	Transition     string `json:"transition" jsonschema_description:"Cut/Dissolve/Fade"`
	Prompt         string `json:"prompt" jsonschema_description:"Image generation prompt for this shot"`
}

type KeyframePrompt struct {
	Positive string `json:"positive" jsonschema_description:"Full detailed positive prompt"`
	Negative string `json:"negative"`
	Camera   string `json:"camera"`
	Lens     string `json:"lens"`
	Lighting string `json:"lighting"`
	Style    string `json:"style"`
	Details  string `json:"details"`
}

type AnimationPrompt struct {
	Positive string `json:"positive" jsonschema_description:"Full detailed video generation prompt"`
	Negative string `json:"negative"`
	Motion   string `json:"motion" jsonschema_description:"Subject motion and camera movement"`
	Camera   string `json:"camera"`
	Lighting string `json:"lighting"`
	Style    string `json:"style"`
	Easing   string `json:"easing" jsonschema_description:"linear/ease-in-out/cinematic-slow"`
	Details  string `json:"details"`
}

type VoiceDirection struct {
	EmotionProfile map[string]interface{} `json:"emotion_profile"`
	TTSPrompt      string                 `json:"tts_prompt" jsonschema_description:"How the line should be read"`
}

type SFXPlan struct {
	SFXList []SFXDef `json:"sfx_list"`
}

type SFXDef struct {
	Name        string `json:"name"`
	Type        string `json:"type" jsonschema_description:"foley/ambience/impact"`
	Description string `json:"description"`
}

type BGMSpec struct {
	Genre       string   `json:"genre"`
	Tempo       int      `json:"tempo"`
	Instruments []string `json:"instruments"`
	Description string   `json:"description" jsonschema_description:"Full musical description"`
}

// Projection inputs: the exact fields each prompt builder needs, lifted off
// the persisted entities by the orchestrator.

type CharacterBrief struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
	VisualStyle string `json:"visual_style,omitempty"`
}

type StoryInput struct {
	Concept         string
	Style           string
	DurationMinutes int
}

type BreakdownInput struct {
	SceneSummary string
	Characters   []CharacterBrief
	Style        string
}

type KeyframeInput struct {
	ShotType   string
	Camera     string
	Action     string
	Prompt     string
	Style      string
	Characters []CharacterBrief
}

type AnimationInput struct {
	Camera         string
	Action         string
	KeyframePrompt string
	Style          string
	Model          string
}

type VoiceInput struct {
	Character string
	Text      string
	Emotion   string
}
