package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/tidwall/gjson"
)

const opImport = "import projects"

// ImportResult は取り込み対象のプロジェクトです。Projects を既存の一覧の先頭に追加してください。
type ImportResult struct {
	Projects []domain.Project
	Added    int
	Skipped  int  // 配列のうち id・name がない、重複している、または解析できなかった項目の数
	Renamed  bool // 単一プロジェクトのIDが衝突し、新しいIDと名前を割り当てた場合に true
}

// Import はエクスポートされた JSON を既存のプロジェクトと照合して取り込みます。
//
// 配列の場合は id と name を持つ項目のうち、既存のIDと重複しないものだけを取り込みます。
// 単一オブジェクトの場合はIDが衝突すると新しいIDを発行し、名前に " (Imported)" を付けます。
func Import(existing []domain.Project, data []byte) (ImportResult, error) {
	data = bytes.TrimSpace(data)
	if !gjson.ValidBytes(data) {
		return ImportResult{}, apperr.Validation(opImport, "JSON ファイルとして読み込めません")
	}

	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.ID] = struct{}{}
	}

	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsArray():
		return importArray(doc, known)
	case doc.IsObject() && hasIdentity(doc):
		return importSingle(data, known)
	default:
		return ImportResult{}, apperr.Validation(opImport, "id と name を持つプロジェクトが含まれていません")
	}
}

func importArray(doc gjson.Result, known map[string]struct{}) (ImportResult, error) {
	var result ImportResult

	doc.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() || !hasIdentity(item) {
			result.Skipped++
			return true
		}
		if _, dup := known[item.Get("id").String()]; dup {
			result.Skipped++
			return true
		}

		var p domain.Project
		if err := json.Unmarshal([]byte(item.Raw), &p); err != nil {
			slog.Warn("解析できないプロジェクトをスキップします", "name", item.Get("name").String(), "error", err)
			result.Skipped++
			return true
		}
		p.Normalize()
		known[p.ID] = struct{}{}
		result.Projects = append(result.Projects, p)
		return true
	})

	result.Added = len(result.Projects)
	return result, nil
}

func importSingle(data []byte, known map[string]struct{}) (ImportResult, error) {
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return ImportResult{}, apperr.Wrap(apperr.KindValidation, opImport, fmt.Errorf("プロジェクトの解析に失敗しました: %w", err))
	}

	var renamed bool
	if _, dup := known[p.ID]; dup {
		p.ID = domain.NewID()
		p.Name += domain.ImportMarker
		renamed = true
	}
	p.Normalize()

	return ImportResult{
		Projects: []domain.Project{p},
		Added:    1,
		Renamed:  renamed,
	}, nil
}

// hasIdentity は id と name が空でない値として存在するかを返します。
func hasIdentity(r gjson.Result) bool {
	id := r.Get("id")
	name := r.Get("name")
	return id.Exists() && id.String() != "" && name.Exists() && name.String() != ""
}
