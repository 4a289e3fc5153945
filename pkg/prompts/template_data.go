package prompts

import (
	_ "embed"

	"github.com/shouni/go-series-kit/pkg/domain"
)

const (
	ModeBible            = "bible"
	ModeCharacterInfo    = "character_info"
	ModeCharacterRefresh = "character_refresh"
	ModePremise          = "premise"
	ModeDrafts           = "drafts"
	ModeScenes           = "scenes"
	ModeScenesEdit       = "scenes_edit"
	ModeVeo              = "veo"
)

// TemplateData は各ステージのプロンプトテンプレートに渡すデータ構造です。
// ステージごとに使う項目だけを埋めます。
type TemplateData struct {
	Idea         string
	ProjectName  string
	Premise      string
	Config       domain.ScriptConfig
	Duration     string
	Instruction  string
	VisualPrompt string
	Count        int

	Episode      EpisodeData
	Cast         []CastMember
	CastNames    string
	Characters   []CharacterBrief
	Scenes       []SceneBrief
	SceneShot    SceneShot
	CharacterMap map[string]string
}

// EpisodeData はシーン分解に渡すエピソードの本文です。
type EpisodeData struct {
	Title   string
	Summary string
	Script  string
}

// CastMember はプロンプトに注入するキャラクターの外見情報です。
type CastMember struct {
	Name   string
	Visual string
	Colors string
}

// CharacterBrief はプロンプト再生成に渡す最小限のキャラクター情報です。
type CharacterBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SceneBrief はシーン編集に渡すシーン情報です。画像データは含めません。
type SceneBrief struct {
	Number           int    `json:"number"`
	Location         string `json:"location"`
	Action           string `json:"action"`
	CameraAngle      string `json:"cameraAngle"`
	StartImagePrompt string `json:"startImagePrompt"`
	EndImagePrompt   string `json:"endImagePrompt"`
	VeoPrompt        string `json:"veoPrompt"`
	SoundPrompt      string `json:"soundPrompt"`
}

// SceneShot は動画プロンプト生成の対象シーンです。
type SceneShot struct {
	Location    string
	Action      string
	CameraAngle string
	StartFrame  string
	EndFrame    string
}

var (
	//go:embed bible.md
	BiblePrompt string
	//go:embed character_info.md
	CharacterInfoPrompt string
	//go:embed character_refresh.md
	CharacterRefreshPrompt string
	//go:embed premise.md
	PremisePrompt string
	//go:embed drafts.md
	DraftsPrompt string
	//go:embed scenes.md
	ScenesPrompt string
	//go:embed scenes_edit.md
	ScenesEditPrompt string
	//go:embed veo.md
	VeoPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeBible:            BiblePrompt,
	ModeCharacterInfo:    CharacterInfoPrompt,
	ModeCharacterRefresh: CharacterRefreshPrompt,
	ModePremise:          PremisePrompt,
	ModeDrafts:           DraftsPrompt,
	ModeScenes:           ScenesPrompt,
	ModeScenesEdit:       ScenesEditPrompt,
	ModeVeo:              VeoPrompt,
}
