package workflow

import (
	"context"
	"testing"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/store"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

type nopBackend struct{}

func (nopBackend) GenerateStructured(context.Context, ai.StructuredRequest) (string, error) {
	return "{}", nil
}

func (nopBackend) GenerateText(context.Context, ai.TextRequest) (string, error) {
	return "", nil
}

func (nopBackend) GenerateImage(context.Context, ai.ImageRequest) (*imagedom.ImageResponse, error) {
	return nil, nil
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), config.DefaultStoreKey, 0)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return st
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("ストアが必須", func(t *testing.T) {
		if _, err := New(ctx, ManagerArgs{Config: config.DefaultConfig(), Backend: nopBackend{}}); err == nil {
			t.Fatal("expected error without store")
		}
	})

	t.Run("APIキーがなければ設定エラー", func(t *testing.T) {
		_, err := New(ctx, ManagerArgs{Config: config.DefaultConfig(), Store: newStore(t)})
		if !apperr.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("OpenAI のみでも Router を構築する", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.OpenAIAPIKey = "sk-test"
		m, err := New(ctx, ManagerArgs{Config: cfg, Store: newStore(t)})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, ok := m.backend.(*ai.Router); !ok {
			t.Errorf("backend = %T, want *ai.Router", m.backend)
		}
	})

	t.Run("全ての Runner を構築する", func(t *testing.T) {
		m, err := New(ctx, ManagerArgs{Config: config.DefaultConfig(), Store: newStore(t), Backend: nopBackend{}})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if m.policy.MaxRetries != config.DefaultMaxRetries {
			t.Errorf("MaxRetries = %d, want %d", m.policy.MaxRetries, config.DefaultMaxRetries)
		}
		if m.BuildDraftRunner() != m.BuildDraftRunner() {
			t.Error("DraftRunner should be shared")
		}
		for name, r := range map[string]any{
			"bible":   m.BuildBibleRunner(),
			"context": m.BuildContextRunner(),
			"scene":   m.BuildSceneRunner(),
			"veo":     m.BuildVeoRunner(),
			"info":    m.BuildCharacterInfoRunner(),
			"refresh": m.BuildCharacterRefreshRunner(),
			"premise": m.BuildPremiseRunner(),
			"images":  m.BuildImageBatch(),
		} {
			if r == nil {
				t.Errorf("%s runner is nil", name)
			}
		}
	})
}
