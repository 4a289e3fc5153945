package config

import (
	"time"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultTextModel        = domain.DefaultTextModel
	DefaultImageModel       = domain.DefaultImageModel
	DefaultVeoPromptModel   = "gemini-3-pro-preview"
	DefaultTemperature      = float32(0.7)
	DefaultMaxRetries       = 3
	DefaultInitialDelay     = 1000 * time.Millisecond
	DefaultBackoffFactor    = 2.0
	DefaultRateInterval     = 2 * time.Second
	DefaultDataDir          = "data"
	DefaultStoreKey         = "mb_master_video_v2_projects"
	DefaultStoreCacheTTL    = 5 * time.Minute
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultPortraitRatio    = domain.AspectSquare
	DefaultStrictConsistent = true
)

// Config は go-series-kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	TextModel      string // プロジェクトに指定がない場合のテキストモデル
	ImageModel     string // プロジェクトに指定がない場合の画像モデル
	VeoPromptModel string // 動画プロンプト（マルチモーダル）生成用
	Temperature    float32

	// --- Credentials ---
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModels  []string // OpenAI 互換エンドポイントに振り分けるモデルID

	// --- Retry ---
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64

	// --- Generation Settings ---
	RateInterval      time.Duration // 画像生成リクエストの最小間隔（0 で無制限）
	StrictConsistency bool          // 台本・シーン生成時に ImagePrompt を外見記述として使う
	PortraitAspect    domain.AspectRatio

	// --- Storage ---
	DataDir       string
	StoreKey      string
	StoreCacheTTL time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		TextModel:         DefaultTextModel,
		ImageModel:        DefaultImageModel,
		VeoPromptModel:    DefaultVeoPromptModel,
		Temperature:       DefaultTemperature,
		OpenAIBaseURL:     DefaultOpenAIBaseURL,
		MaxRetries:        DefaultMaxRetries,
		InitialDelay:      DefaultInitialDelay,
		BackoffFactor:     DefaultBackoffFactor,
		RateInterval:      DefaultRateInterval,
		StrictConsistency: DefaultStrictConsistent,
		PortraitAspect:    DefaultPortraitRatio,
		DataDir:           DefaultDataDir,
		StoreKey:          DefaultStoreKey,
		StoreCacheTTL:     DefaultStoreCacheTTL,
	}
}
