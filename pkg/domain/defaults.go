package domain

// 元アプリケーションから引き継いだ既定値です。
const (
	DefaultProjectName  = "Untitled Project"
	DefaultEpisodeTitle = "New Episode"
	ImportMarker        = " (Imported)"

	DefaultTextModel        = "gemini-2.5-flash"
	DefaultImageModel       = "gemini-2.5-flash-image"
	DefaultLegacyImageModel = "imagen-4.0-generate-001"
)

// TextModels は選択可能なテキストモデルです。
var TextModels = []string{"gemini-2.5-flash", "gemini-3-pro-preview"}

// ImageModels は選択可能な画像モデルです。
var ImageModels = []string{"gemini-2.5-flash-image", "gemini-3-pro-image-preview", "imagen-4.0-generate-001"}

// DefaultScriptConfig は新規プロジェクトの演出設定です。
func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		AspectRatio: AspectWide,
		HasDialogue: true,
		Language:    "Vietnamese",
		Duration:    "60s",
		Mood:        "Cinematic",
		Style:       "Photorealistic",
	}
}

// DefaultAIConfig は新規プロジェクトのモデル設定です。
func DefaultAIConfig() AIConfig {
	return AIConfig{TextModel: DefaultTextModel, ImageModel: DefaultImageModel}
}

// DefaultLegacyAIConfig は aiConfig を持たない古いドキュメントやインポートに補完するモデル設定です。
func DefaultLegacyAIConfig() AIConfig {
	return AIConfig{TextModel: DefaultTextModel, ImageModel: DefaultLegacyImageModel}
}

// FillDefaults は空の項目を既定値で埋めた ScriptConfig を返します。
func (c ScriptConfig) FillDefaults() ScriptConfig {
	d := DefaultScriptConfig()
	if c.AspectRatio == "" {
		c.AspectRatio = d.AspectRatio
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.Duration == "" {
		c.Duration = d.Duration
	}
	if c.Mood == "" {
		c.Mood = d.Mood
	}
	if c.Style == "" {
		c.Style = d.Style
	}
	return c
}
