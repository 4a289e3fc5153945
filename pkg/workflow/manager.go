package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
	"github.com/shouni/go-series-kit/pkg/runner"
	"github.com/shouni/go-series-kit/pkg/store"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
// Backend と PromptBuilder は nil の場合に Config から新規作成します。
type ManagerArgs struct {
	Config        config.Config
	Store         store.Store
	Backend       ai.Backend
	PromptBuilder prompts.PromptBuilder
	Policy        *retry.Policy
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
type Manager struct {
	cfg           config.Config
	store         store.Store
	backend       ai.Backend
	promptBuilder prompts.PromptBuilder
	policy        retry.Policy
	drafts        *runner.DraftRunner
	images        *generator.ImageGenerator
}

// New は、設定と依存関係を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.Store == nil {
		return nil, fmt.Errorf("Store は必須です")
	}

	backend, err := initializeBackend(ctx, args.Config, args.Backend)
	if err != nil {
		return nil, err
	}

	pb, err := initializePromptBuilder(args.PromptBuilder)
	if err != nil {
		return nil, err
	}

	policy := retry.FromConfig(args.Config)
	if args.Policy != nil {
		policy = *args.Policy
	}

	return &Manager{
		cfg:           args.Config,
		store:         args.Store,
		backend:       backend,
		promptBuilder: pb,
		policy:        policy,
		drafts:        runner.NewDraftRunner(args.Config, pb, backend, policy),
		images:        generator.NewImageGenerator(backend, policy, args.Config.RateInterval),
	}, nil
}

// initializeBackend はモデルIDで振り分ける Router を構築します。
// 引数として既存の Backend が渡された場合はそれを返します。
func initializeBackend(ctx context.Context, cfg config.Config, backend ai.Backend) (ai.Backend, error) {
	if backend != nil {
		return backend, nil
	}
	if cfg.GeminiAPIKey == "" && cfg.OpenAIAPIKey == "" {
		return nil, apperr.New(apperr.KindConfiguration, "workflow", "GEMINI_API_KEY または OPENAI_API_KEY のいずれかが必要です")
	}

	var gemini, openai ai.Backend
	if cfg.GeminiAPIKey != "" {
		b, err := ai.NewGeminiBackend(ctx, cfg.GeminiAPIKey, ai.WithTemperature(cfg.Temperature))
		if err != nil {
			return nil, err
		}
		gemini = b
	}
	if cfg.OpenAIAPIKey != "" {
		b, err := ai.NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		openai = b
	}

	slog.InfoContext(ctx, "AIバックエンドを初期化しました",
		"gemini", gemini != nil,
		"openai", openai != nil,
		"openai_models", len(cfg.OpenAIModels),
	)
	return ai.NewRouter(gemini, openai, cfg.OpenAIModels), nil
}

// initializePromptBuilder は TextPromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePromptBuilder(pb prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}

	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}
