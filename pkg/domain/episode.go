package domain

// Episode はエピソードのドラフト（ストーリーと台本）とシーン分解を保持します。
type Episode struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	VoiceoverScript string   `json:"voiceoverScript"` // タイムスタンプ付きの台本
	SoundAtmosphere string   `json:"soundAtmosphere,omitempty"`
	CharacterIDs    []string `json:"characterIds"`
	Scenes          []Scene  `json:"scenes"`
	CreatedAt       int64    `json:"createdAt"`
}

// Scene はシーン分解の1カットです。4つのプロンプト項目は構造化JSONで保持されます。
type Scene struct {
	ID               string `json:"id"`
	Number           int    `json:"number"`
	Location         string `json:"location"`
	Action           string `json:"action"`
	CameraAngle      string `json:"cameraAngle"`
	StartImagePrompt Prompt `json:"startImagePrompt"`
	EndImagePrompt   Prompt `json:"endImagePrompt"`
	StartImageURL    string `json:"startImageUrl,omitempty"`
	EndImageURL      string `json:"endImageUrl,omitempty"`
	VeoPrompt        Prompt `json:"veoPrompt"`
	SoundPrompt      Prompt `json:"soundPrompt"`
}

// Frame はシーンの開始・終了フレームを区別します。
type Frame string

const (
	FrameStart Frame = "start"
	FrameEnd   Frame = "end"
)

// Frames はシーン画像を生成する順序です。
var Frames = []Frame{FrameStart, FrameEnd}

// ImagePrompt は指定フレームの画像プロンプトを返します。
func (s Scene) ImagePrompt(f Frame) Prompt {
	if f == FrameEnd {
		return s.EndImagePrompt
	}
	return s.StartImagePrompt
}

// ImageURL は指定フレームの画像を返します。
func (s Scene) ImageURL(f Frame) string {
	if f == FrameEnd {
		return s.EndImageURL
	}
	return s.StartImageURL
}

// SetImageURL は指定フレームの画像を設定します。
func (s *Scene) SetImageURL(f Frame, url string) {
	if f == FrameEnd {
		s.EndImageURL = url
		return
	}
	s.StartImageURL = url
}

// NewEpisode はデフォルト値で初期化されたエピソードを生成します。
func NewEpisode() Episode {
	return Episode{
		ID:           NewID(),
		Title:        DefaultEpisodeTitle,
		CharacterIDs: []string{},
		Scenes:       []Scene{},
		CreatedAt:    NowMillis(),
	}
}

// HasStory はシーン分解の前提（ストーリーと台本）が揃っているかを返します。
func (e Episode) HasStory() bool {
	return e.Summary != "" && e.VoiceoverScript != ""
}

// FindScene は ID に一致するシーンを返します。
func (e *Episode) FindScene(id string) *Scene {
	for i := range e.Scenes {
		if e.Scenes[i].ID == id {
			return &e.Scenes[i]
		}
	}
	return nil
}

// AddCast はキャストIDを重複なく追加します。
func (e *Episode) AddCast(id string) {
	for _, existing := range e.CharacterIDs {
		if existing == id {
			return
		}
	}
	e.CharacterIDs = append(e.CharacterIDs, id)
}

// Clone はスライスを共有しないエピソードのコピーを返します。
func (e Episode) Clone() Episode {
	c := e
	c.CharacterIDs = cloneSlice(e.CharacterIDs)
	c.Scenes = cloneSlice(e.Scenes)
	return c
}

// FindEpisode は ID に一致するエピソードを返します。
func (p *Project) FindEpisode(id string) *Episode {
	for i := range p.Episodes {
		if p.Episodes[i].ID == id {
			return &p.Episodes[i]
		}
	}
	return nil
}

// PrependEpisodes はエピソードをリストの先頭に追加します。
func (p *Project) PrependEpisodes(episodes ...Episode) {
	p.Episodes = append(append([]Episode(nil), episodes...), p.Episodes...)
}
