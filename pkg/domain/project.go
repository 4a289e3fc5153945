package domain

import "time"

// AspectRatio は画像・動画の縦横比です。
type AspectRatio string

const (
	AspectWide      AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
	AspectCinematic AspectRatio = "21:9"
	AspectClassic   AspectRatio = "4:3"
)

// SupportedAspectRatios は生成時に指定可能な縦横比の一覧です。
var SupportedAspectRatios = []AspectRatio{AspectWide, AspectPortrait, AspectSquare, AspectCinematic, AspectClassic}

// Valid は既知の縦横比かどうかを返します。
func (a AspectRatio) Valid() bool {
	for _, r := range SupportedAspectRatios {
		if r == a {
			return true
		}
	}
	return false
}

// ScriptConfig はシリーズ全体の演出設定です。
type ScriptConfig struct {
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspectRatio"`
	HasDialogue bool        `json:"hasDialogue" yaml:"hasDialogue"`
	Language    string      `json:"language" yaml:"language"`
	Duration    string      `json:"duration" yaml:"duration"` // "60s" や "2m" などの自由記述
	Mood        string      `json:"mood" yaml:"mood"`
	Style       string      `json:"style" yaml:"style"`
}

// AIConfig はプロジェクトで使用するモデルIDです。
type AIConfig struct {
	TextModel  string `json:"textModel" yaml:"textModel"`
	ImageModel string `json:"imageModel" yaml:"imageModel"`
}

// IsZero は設定が未指定かを返します。
func (c AIConfig) IsZero() bool {
	return c.TextModel == "" && c.ImageModel == ""
}

// Project はシリーズのバイブル（前提・キャラクター）とエピソードを保持するルートエンティティです。
type Project struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Premise    string       `json:"premise"`
	Config     ScriptConfig `json:"config"`
	AIConfig   *AIConfig    `json:"aiConfig,omitempty"` // 古いドキュメントには存在しない
	Characters []Character  `json:"characters"`
	Episodes   []Episode    `json:"episodes"`
	CreatedAt  int64        `json:"createdAt"` // Unix ミリ秒
}

// Models はモデル設定を返します。未設定の場合は移行用のデフォルトを返します。
func (p *Project) Models() AIConfig {
	if p.AIConfig == nil || p.AIConfig.IsZero() {
		return DefaultLegacyAIConfig()
	}
	return *p.AIConfig
}

// NowMillis は現在時刻を Unix ミリ秒で返します。
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// FindProject は ID に一致するプロジェクトのインデックスを返します。見つからない場合は -1 です。
func FindProject(projects []Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone はスライスを共有しないプロジェクトのコピーを返します。
// 一覧は nil であっても空スライスとして複製されるため、JSON では常に配列になります。
func (p Project) Clone() Project {
	c := p
	if p.AIConfig != nil {
		ai := *p.AIConfig
		c.AIConfig = &ai
	}
	c.Characters = cloneSlice(p.Characters)
	c.Episodes = make([]Episode, len(p.Episodes))
	for i, ep := range p.Episodes {
		c.Episodes[i] = ep.Clone()
	}
	return c
}

// Normalize は欠落した項目を補います。aiConfig がない場合は移行用のデフォルトを設定します。
func (p *Project) Normalize() {
	if p.AIConfig == nil || p.AIConfig.IsZero() {
		legacy := DefaultLegacyAIConfig()
		p.AIConfig = &legacy
	}
	if p.Characters == nil {
		p.Characters = []Character{}
	}
	if p.Episodes == nil {
		p.Episodes = []Episode{}
	}
	for i := range p.Episodes {
		if p.Episodes[i].CharacterIDs == nil {
			p.Episodes[i].CharacterIDs = []string{}
		}
		if p.Episodes[i].Scenes == nil {
			p.Episodes[i].Scenes = []Scene{}
		}
	}
}

// cloneSlice は s の要素をコピーした新しいスライスを返します。s が nil でも空スライスを返します。
func cloneSlice[T any](s []T) []T {
	c := make([]T, len(s))
	copy(c, s)
	return c
}
