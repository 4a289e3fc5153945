package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-series-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultHTTPAddr  = ":8080"
	DefaultOutputDir = "output"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultEnvFile   = ".env"
)

// Config はアプリケーション全体の環境設定（APIキーやサーバー設定）を保持する構造体なのだ。
type Config struct {
	Kit config.Config // 各 Runner に渡すライブラリ設定

	HTTPAddr  string
	OutputDir string
	LogLevel  string
	LogFormat string

	Options Options
}

// Options は CLI フラグから渡される実行時のパラメータなのだ。
type Options struct {
	ProjectID  string // --project
	EpisodeID  string // --episode
	SceneID    string // --scene
	TextModel  string // --model: プロジェクトの設定より優先するテキストモデル
	ImageModel string // --image-model
	OutputDir  string // --output-dir
	Preset     string // --preset: bible 用の YAML プリセット
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	loadDotEnv(DefaultEnvFile)

	kit := config.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.OpenAIAPIKey = envutil.GetEnv("OPENAI_API_KEY", "")
	kit.OpenAIBaseURL = envutil.GetEnv("OPENAI_BASE_URL", config.DefaultOpenAIBaseURL)
	kit.OpenAIModels = splitList(envutil.GetEnv("OPENAI_MODELS", ""))
	kit.TextModel = envutil.GetEnv("TEXT_MODEL", config.DefaultTextModel)
	kit.ImageModel = envutil.GetEnv("IMAGE_MODEL", config.DefaultImageModel)
	kit.VeoPromptModel = envutil.GetEnv("VEO_PROMPT_MODEL", config.DefaultVeoPromptModel)
	kit.DataDir = envutil.GetEnv("DATA_DIR", config.DefaultDataDir)
	kit.RateInterval = durationEnv("RATE_INTERVAL", config.DefaultRateInterval)
	kit.MaxRetries = intEnv("MAX_RETRIES", config.DefaultMaxRetries)
	kit.StrictConsistency = boolEnv("STRICT_CONSISTENCY", config.DefaultStrictConsistent)

	return &Config{
		Kit:       kit,
		HTTPAddr:  envutil.GetEnv("HTTP_ADDR", DefaultHTTPAddr),
		OutputDir: envutil.GetEnv("OUTPUT_DIR", DefaultOutputDir),
		LogLevel:  envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat: envutil.GetEnv("LOG_FORMAT", DefaultLogFormat),
	}
}

// HasCredential はいずれかのモデルプロバイダの API キーが設定されているかを返すのだ。
func (c *Config) HasCredential() bool {
	return c.Kit.GeminiAPIKey != "" || c.Kit.OpenAIAPIKey != ""
}

// ApplyOptions は CLI フラグで指定された値を設定に反映するのだ。
func (c *Config) ApplyOptions(opts Options) {
	c.Options = opts
	if opts.TextModel != "" {
		c.Kit.TextModel = opts.TextModel
	}
	if opts.ImageModel != "" {
		c.Kit.ImageModel = opts.ImageModel
	}
	if opts.OutputDir != "" {
		c.OutputDir = opts.OutputDir
	}
}

// loadDotEnv は .env があれば読み込むのだ。既に設定済みの環境変数は上書きしないのだ。
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env の読み込みに失敗したのだ", "path", path, "error", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なので既定値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.Warn("環境変数の値が不正なので既定値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

func boolEnv(key string, def bool) bool {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
