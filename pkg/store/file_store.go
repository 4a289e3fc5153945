package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const snapshotKey = "projects"

// FileStore はデータディレクトリ内の1つの JSON ファイルにプロジェクト一覧を保存します。
type FileStore struct {
	path     string
	snapshot *cache.Cache
	loads    singleflight.Group
	gen      atomic.Uint64 // 保存のたびに進む世代番号

	// mu は読み込み・変更・保存の一連の処理を直列化します。
	mu sync.Mutex

	subsMu  sync.RWMutex
	subs    map[int]func([]domain.Project)
	nextSub int
}

// NewFileStore は dir/key.json を保存先とする FileStore を生成します。
// ttl はメモリ上のスナップショットの有効期間です。
func NewFileStore(dir, key string, ttl time.Duration) (*FileStore, error) {
	if dir == "" || key == "" {
		return nil, apperr.New(apperr.KindConfiguration, "open store", "データディレクトリとストアキーは必須です")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("データディレクトリの作成に失敗しました: %w", err)
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &FileStore{
		path:     filepath.Join(dir, key+".json"),
		snapshot: cache.New(ttl, 2*ttl),
		subs:     make(map[int]func([]domain.Project)),
	}, nil
}

// Path は保存先のファイルパスを返します。
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneAll(projects), nil
}

// load はキャッシュされたスナップショットを返します。返り値を変更してはいけません。
func (s *FileStore) load(ctx context.Context) ([]domain.Project, error) {
	if v, ok := s.snapshot.Get(snapshotKey); ok {
		return v.([]domain.Project), nil
	}

	v, err, _ := s.loads.Do(snapshotKey, func() (any, error) {
		gen := s.gen.Load()
		projects, err := s.readFile()
		if err != nil {
			return nil, err
		}
		// 読み込み中に保存があった場合は、古い内容でキャッシュを上書きしない
		if s.gen.Load() == gen {
			s.snapshot.Set(snapshotKey, projects, cache.DefaultExpiration)
		}
		slog.DebugContext(ctx, "プロジェクトを読み込みました", "path", s.path, "count", len(projects))
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Project), nil
}

func (s *FileStore) readFile() ([]domain.Project, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの読み込みに失敗しました: %w", err)
	}
	if len(data) == 0 {
		return []domain.Project{}, nil
	}

	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの解析に失敗しました (%s): %w", s.path, err)
	}
	return Migrate(projects), nil
}

func (s *FileStore) Save(ctx context.Context, projects []domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := cloneAll(projects)
	if err := s.saveLocked(snapshot); err != nil {
		return err
	}
	s.notify(snapshot)
	return nil
}

func (s *FileStore) Get(ctx context.Context, projectID string) (domain.Project, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	idx := domain.FindProject(projects, projectID)
	if idx < 0 {
		return domain.Project{}, apperr.NotFound("get project", "プロジェクトが見つかりません: %s", projectID)
	}
	return projects[idx].Clone(), nil
}

func (s *FileStore) Put(ctx context.Context, project domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}

	next := cloneAll(current)
	if idx := domain.FindProject(next, project.ID); idx >= 0 {
		next[idx] = project.Clone()
	} else {
		next = append([]domain.Project{project.Clone()}, next...)
	}

	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.notify(next)
	return nil
}

func (s *FileStore) Update(ctx context.Context, projectID string, fn func(*domain.Project) error) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return domain.Project{}, err
	}

	idx := domain.FindProject(current, projectID)
	if idx < 0 {
		return domain.Project{}, apperr.NotFound("update project", "プロジェクトが見つかりません: %s", projectID)
	}

	next := cloneAll(current)
	if err := fn(&next[idx]); err != nil {
		return domain.Project{}, err
	}

	if err := s.saveLocked(next); err != nil {
		return domain.Project{}, err
	}
	s.notify(next)
	return next[idx].Clone(), nil
}

func (s *FileStore) Modify(ctx context.Context, fn func([]domain.Project) ([]domain.Project, error)) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := fn(cloneAll(current))
	if err != nil {
		return nil, err
	}
	next = cloneAll(next)

	if err := s.saveLocked(next); err != nil {
		return nil, err
	}
	s.notify(next)
	return cloneAll(next), nil
}

// saveLocked は一時ファイルに書き込んでから置き換えます。s.mu を保持して呼び出してください。
func (s *FileStore) saveLocked(projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("プロジェクトのエンコードに失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("プロジェクトファイルの置き換えに失敗しました: %w", err)
	}

	s.gen.Add(1)
	s.snapshot.Set(snapshotKey, projects, cache.DefaultExpiration)
	return nil
}

func (s *FileStore) Subscribe(fn func([]domain.Project)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// notify は s.mu を保持したまま呼ばれるため、購読者には保存順に届きます。
func (s *FileStore) notify(projects []domain.Project) {
	s.subsMu.RLock()
	subs := make([]func([]domain.Project), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(cloneAll(projects))
	}
}

func cloneAll(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}
