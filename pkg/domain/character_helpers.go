package domain

// FindCharacter は ID に一致するキャラクターを返します。
func (p *Project) FindCharacter(id string) *Character {
	for i := range p.Characters {
		if p.Characters[i].ID == id {
			return &p.Characters[i]
		}
	}
	return nil
}

// SelectCharacters は ids の順に該当するキャラクターを返します。
// 存在しないIDは無視します。
func (p *Project) SelectCharacters(ids []string) []Character {
	if len(ids) == 0 {
		return nil
	}
	index := make(map[string]Character, len(p.Characters))
	for _, c := range p.Characters {
		index[c.ID] = c
	}

	selected := make([]Character, 0, len(ids))
	for _, id := range ids {
		if c, ok := index[id]; ok {
			selected = append(selected, c)
		}
	}
	return selected
}

// CharacterIDs はプロジェクトの全キャラクターIDを登録順に返します。
func (p *Project) CharacterIDs() []string {
	ids := make([]string, 0, len(p.Characters))
	for _, c := range p.Characters {
		ids = append(ids, c.ID)
	}
	return ids
}

// UpsertCharacter は同じIDのキャラクターを置き換え、存在しなければ末尾に追加します。
func (p *Project) UpsertCharacter(c Character) {
	if existing := p.FindCharacter(c.ID); existing != nil {
		*existing = c
		return
	}
	p.Characters = append(p.Characters, c)
}

// DanglingCharacterIDs は、どのキャラクターにも対応しないエピソードのキャストIDを返します。
func (p *Project) DanglingCharacterIDs() map[string][]string {
	known := make(map[string]struct{}, len(p.Characters))
	for _, c := range p.Characters {
		known[c.ID] = struct{}{}
	}

	dangling := make(map[string][]string)
	for _, ep := range p.Episodes {
		for _, id := range ep.CharacterIDs {
			if _, ok := known[id]; !ok {
				dangling[ep.ID] = append(dangling[ep.ID], id)
			}
		}
	}
	return dangling
}
