package prompts

// PromptBuilder は、ステージごとのテキストプロンプトを構築する契約です。
type PromptBuilder interface {
	// Build は、指定されたモード（例: "drafts", "scenes"）とデータに基づいてプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}
