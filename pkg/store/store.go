package store

import (
	"context"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// Store はプロジェクト一覧を1つのドキュメントとして永続化します。
// 書き込みは後勝ちですが、Update による読み込み・変更・保存は直列化されます。
type Store interface {
	// Load は全プロジェクトのスナップショットを返します。
	Load(ctx context.Context) ([]domain.Project, error)
	// Save は全プロジェクトを置き換えます。
	Save(ctx context.Context, projects []domain.Project) error
	// Get は ID に一致するプロジェクトを返します。
	Get(ctx context.Context, projectID string) (domain.Project, error)
	// Put は同じIDのプロジェクトを置き換え、存在しなければ先頭に追加します。
	Put(ctx context.Context, project domain.Project) error
	// Update は最新のプロジェクトに fn を適用して保存します。fn がエラーを返した場合は何も保存しません。
	Update(ctx context.Context, projectID string, fn func(*domain.Project) error) (domain.Project, error)
	// Modify は最新の一覧に fn を適用し、返された一覧で置き換えます。fn がエラーを返した場合は何も保存しません。
	Modify(ctx context.Context, fn func([]domain.Project) ([]domain.Project, error)) ([]domain.Project, error)
	// Subscribe は保存のたびに新しいスナップショットを受け取る関数を登録します。
	// fn は保存順に、保存のロックを保持したまま呼ばれます。fn からストアを変更してはいけません。
	Subscribe(fn func([]domain.Project)) (unsubscribe func())
}
