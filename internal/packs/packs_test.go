package packs

import "testing"

func TestLoadRegistry(t *testing.T) {
	r := LoadRegistry()

	p, ok := r.Pack("pop_culture", "en")
	if !ok {
		t.Fatal("pop_culture/en pack not loaded")
	}
	if len(p.Questions) == 0 {
		t.Error("pop_culture/en has no questions")
	}
	if !p.Free {
		t.Error("pop_culture should be a free pack")
	}

	if _, ok := r.Pack("pop_culture", "fr"); ok {
		t.Error("unexpected pack for a language without a variant")
	}
}

func TestRegistryQuestionLookup(t *testing.T) {
	r := LoadRegistry()

	q, ok := r.Question("pc-en-001")
	if !ok {
		t.Fatal("question pc-en-001 not found")
	}
	if q.Question == "" || q.CorrectAnswer == "" {
		t.Errorf("question pc-en-001 incomplete: %+v", q)
	}

	if _, ok := r.Question("nope-000"); ok {
		t.Error("lookup of unknown id succeeded")
	}
}

func TestRegistryList(t *testing.T) {
	r := LoadRegistry()

	en := r.List("en")
	if len(en) != 3 {
		t.Fatalf("got %d English packs, want 3", len(en))
	}
	// Free packs come first.
	if !en[0].Free {
		t.Error("list does not start with a free pack")
	}
	for i := 1; i < len(en); i++ {
		if en[i].Free && !en[i-1].Free {
			t.Error("free pack listed after a premium one")
		}
	}
}

func TestRegistryQuestionsPool(t *testing.T) {
	r := LoadRegistry()

	pool := r.Questions([]string{"pop_culture", "travel_places"}, "en")
	if len(pool) != 20 {
		t.Errorf("got %d pooled questions, want 20", len(pool))
	}

	// Packs without a variant in the language are skipped, not an error.
	pool = r.Questions([]string{"pop_culture", "canarias_es"}, "en")
	if len(pool) != 12 {
		t.Errorf("got %d pooled questions, want 12", len(pool))
	}
}

func TestRegistryPlayable(t *testing.T) {
	r := LoadRegistry()

	if !r.Playable([]string{"pop_culture"}, "en", nil) {
		t.Error("free pack should be playable without unlocks")
	}
	if r.Playable([]string{"impossible"}, "en", nil) {
		t.Error("premium pack playable without an unlock")
	}
	if !r.Playable([]string{"impossible"}, "en", []string{"impossible"}) {
		t.Error("unlocked premium pack not playable")
	}
	if r.Playable([]string{"pop_culture"}, "de", nil) {
		t.Error("pack playable in a language it does not have")
	}
	if r.Playable(nil, "en", nil) {
		t.Error("empty selection reported playable")
	}
}
