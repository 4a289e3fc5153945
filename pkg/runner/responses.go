package runner

import (
	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/invopop/jsonschema"
)

// promptField はスキーマ上は文字列として宣言し、デコード時は文字列とオブジェクトの両方を受け付けます。
type promptField struct {
	domain.Prompt
}

func (promptField) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "JSON STRING",
	}
}

type bibleCharacter struct {
	Name        string `json:"name"`
	Age         string `json:"age"`
	Description string `json:"description"`
	ImagePrompt string `json:"imagePrompt" jsonschema:"description=Highly detailed visual prompt for generating a character portrait."`
	Archetype   string `json:"archetype,omitempty" jsonschema:"description=The narrative role of the character."`
	Personality string `json:"personality,omitempty" jsonschema:"description=Key personality traits."`
	Colors      string `json:"colors,omitempty" jsonschema:"description=Signature color palette description."`
	DOB         string `json:"dob,omitempty" jsonschema:"description=Approximate date of birth or zodiac sign if applicable."`
}

type bibleResponse struct {
	ProjectName string           `json:"projectName"`
	Premise     string           `json:"premise" jsonschema:"description=A concise summary of the overall story."`
	Characters  []bibleCharacter `json:"characters"`
}

type draftItem struct {
	Title           string `json:"title"`
	Summary         string `json:"summary" jsonschema:"description=Detailed story plot for this episode."`
	VoiceoverScript string `json:"voiceoverScript" jsonschema:"description=The full script with timestamps such as '00:00 [Character]: Hello'."`
	SoundAtmosphere string `json:"soundAtmosphere,omitempty"`
}

type draftsResponse struct {
	Drafts []draftItem `json:"drafts"`
}

type sceneItem struct {
	Number           int         `json:"number"`
	Location         string      `json:"location"`
	Action           string      `json:"action"`
	CameraAngle      string      `json:"cameraAngle"`
	StartImagePrompt promptField `json:"startImagePrompt"`
	EndImagePrompt   promptField `json:"endImagePrompt"`
	VeoPrompt        promptField `json:"veoPrompt"`
	SoundPrompt      promptField `json:"soundPrompt"`
}

type scenesResponse struct {
	Scenes []sceneItem `json:"scenes"`
}

type characterInfoResponse struct {
	Name        string `json:"name,omitempty"`
	Age         string `json:"age,omitempty"`
	Description string `json:"description,omitempty"`
	Archetype   string `json:"archetype,omitempty"`
	Personality string `json:"personality,omitempty"`
	Colors      string `json:"colors,omitempty"`
	DOB         string `json:"dob,omitempty"`
}

type refreshedCharacter struct {
	ID          string `json:"id,omitempty"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
}

type refreshResponse struct {
	UpdatedCharacters []refreshedCharacter `json:"updatedCharacters,omitempty"`
}

// スキーマは起動時に一度だけ生成します。
var (
	bibleSchema         = ai.SchemaFor[bibleResponse]()
	draftsSchema        = ai.SchemaFor[draftsResponse]()
	scenesSchema        = ai.SchemaFor[scenesResponse]()
	characterInfoSchema = ai.SchemaFor[characterInfoResponse]()
	refreshSchema       = ai.SchemaFor[refreshResponse]()
)

func (s sceneItem) toScene(number int) domain.Scene {
	return domain.Scene{
		ID:               domain.NewID(),
		Number:           number,
		Location:         s.Location,
		Action:           s.Action,
		CameraAngle:      s.CameraAngle,
		StartImagePrompt: s.StartImagePrompt.Prompt,
		EndImagePrompt:   s.EndImagePrompt.Prompt,
		VeoPrompt:        s.VeoPrompt.Prompt,
		SoundPrompt:      s.SoundPrompt.Prompt,
	}
}
