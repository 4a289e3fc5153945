package generator

const (
	// DefaultBurst は画像生成リクエストのバースト数です。
	DefaultBurst = 1

	opCharacterBatch = "generate character images"
	opSceneBatch     = "generate scene images"
	opImage          = "generate image"
)

// BatchReport はバッチ画像生成の結果です。
type BatchReport struct {
	Generated int  `json:"generated"` // 生成して保存できた画像数
	Failed    int  `json:"failed"`    // 失敗してスキップした画像数
	Skipped   int  `json:"skipped"`   // 生成済み、またはプロンプトが空のため対象外だった画像数
	Aborted   bool `json:"aborted"`   // 権限エラーにより残りを中止した場合に true
}
