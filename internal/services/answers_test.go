package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
)

func TestValidateAnswerText(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid", in: "The Beatles", want: "The Beatles"},
		{name: "trims whitespace", in: "  Paris  ", want: "Paris"},
		{name: "empty", in: "", wantErr: true},
		{name: "whitespace only", in: "   ", wantErr: true},
		{name: "single rune", in: "x", wantErr: true},
		{name: "too long", in: strings.Repeat("a", 201), wantErr: true},
		{name: "reserved placeholder", in: "no answer provided", wantErr: true},
		{name: "reserved placeholder padded", in: "  No Answer Provided ", wantErr: true},
		{name: "max length ok", in: strings.Repeat("a", 200), want: strings.Repeat("a", 200)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateAnswerText(tc.in)
			if tc.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidInput) {
					t.Fatalf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsDuplicateAnswer(t *testing.T) {
	existing := []models.Answer{
		{Text: "Central Perk"},
		{Text: "The Moon"},
	}

	if !IsDuplicateAnswer("central perk", "Titanic", existing) {
		t.Error("case-insensitive decoy collision not detected")
	}
	if !IsDuplicateAnswer("Paris", "paris", nil) {
		t.Error("collision with the correct answer not detected")
	}
	if IsDuplicateAnswer("Something else", "Titanic", existing) {
		t.Error("unique answer flagged as duplicate")
	}
}
