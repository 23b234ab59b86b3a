package packs

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
)

//go:embed data/*.json
var packFiles embed.FS

type Question struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
}

type Pack struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Language  string     `json:"language"`
	Theme     string     `json:"theme"`
	Free      bool       `json:"free"`
	Questions []Question `json:"questions"`
}

// Registry holds all loaded packs, keyed by pack id then language.
type Registry struct {
	packs     map[string]map[string]*Pack
	questions map[string]Question
}

var packSources = []string{
	"data/pop_culture_en.json",
	"data/pop_culture_es.json",
	"data/canarias_es.json",
	"data/travel_places_en.json",
	"data/impossible_en.json",
}

func LoadRegistry() *Registry {
	r := &Registry{
		packs:     make(map[string]map[string]*Pack),
		questions: make(map[string]Question),
	}
	for _, src := range packSources {
		raw, err := packFiles.ReadFile(src)
		if err != nil {
			log.Fatalf("packs: missing embedded file %s: %v", src, err)
		}
		var p Pack
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Fatalf("packs: bad pack file %s: %v", src, err)
		}
		if err := r.add(&p); err != nil {
			log.Fatalf("packs: %v", err)
		}
	}
	return r
}

func (r *Registry) add(p *Pack) error {
	if p.ID == "" || p.Language == "" {
		return fmt.Errorf("pack %q missing id or language", p.Name)
	}
	if r.packs[p.ID] == nil {
		r.packs[p.ID] = make(map[string]*Pack)
	}
	if _, dup := r.packs[p.ID][p.Language]; dup {
		return fmt.Errorf("duplicate pack %s/%s", p.ID, p.Language)
	}
	r.packs[p.ID][p.Language] = p
	for _, q := range p.Questions {
		if q.ID == "" || q.Question == "" || q.CorrectAnswer == "" {
			return fmt.Errorf("pack %s/%s has a malformed question", p.ID, p.Language)
		}
		if _, dup := r.questions[q.ID]; dup {
			return fmt.Errorf("duplicate question id %s", q.ID)
		}
		r.questions[q.ID] = q
	}
	return nil
}

// Pack returns the pack for the given id and language, if any.
func (r *Registry) Pack(id, language string) (*Pack, bool) {
	p, ok := r.packs[id][language]
	return p, ok
}

// Question resolves a question by id across all packs.
func (r *Registry) Question(id string) (Question, bool) {
	q, ok := r.questions[id]
	return q, ok
}

// List returns every pack available in the given language, free packs
// first.
func (r *Registry) List(language string) []*Pack {
	var free, paid []*Pack
	for _, byLang := range r.packs {
		if p, ok := byLang[language]; ok {
			if p.Free {
				free = append(free, p)
			} else {
				paid = append(paid, p)
			}
		}
	}
	return append(free, paid...)
}

// Questions gathers the question pool for the selected packs in the given
// language, skipping packs without a variant in that language.
func (r *Registry) Questions(packIDs []string, language string) []Question {
	var out []Question
	for _, id := range packIDs {
		if p, ok := r.packs[id][language]; ok {
			out = append(out, p.Questions...)
		}
	}
	return out
}

// Playable reports whether every selected pack is usable by a player with
// the given unlocked set (free packs always are).
func (r *Registry) Playable(packIDs []string, language string, unlocked []string) bool {
	owned := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		owned[id] = true
	}
	for _, id := range packIDs {
		p, ok := r.packs[id][language]
		if !ok {
			return false
		}
		if !p.Free && !owned[id] {
			return false
		}
	}
	return len(packIDs) > 0
}
