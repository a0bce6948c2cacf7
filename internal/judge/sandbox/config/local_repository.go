// Package config resolves language specs for the sandbox.
package config

import (
	"context"
	"sort"

	"codejudge/internal/judge/sandbox/profile"
	appErr "codejudge/pkg/errors"
)

// LanguageRepository resolves language ids to specs.
type LanguageRepository interface {
	GetLanguageSpec(ctx context.Context, id string) (profile.LanguageSpec, error)
	ListLanguages(ctx context.Context) []profile.LanguageSpec
}

// LocalRepository serves language specs from memory.
type LocalRepository struct {
	languages map[string]profile.LanguageSpec
}

// NewLocalRepository indexes languages by id, falling back to the built-in set when the list is empty.
// Invalid specs are rejected so a bad config fails at start-up.
func NewLocalRepository(languages []profile.LanguageSpec) (*LocalRepository, error) {
	if len(languages) == 0 {
		languages = profile.DefaultLanguages()
	}
	langMap := make(map[string]profile.LanguageSpec, len(languages))
	for _, lang := range languages {
		if err := lang.Validate(); err != nil {
			return nil, appErr.Wrapf(err, appErr.InvalidParams, "invalid language config: %v", err)
		}
		langMap[lang.ID] = lang
	}
	return &LocalRepository{languages: langMap}, nil
}

// GetLanguageSpec returns the spec for id.
func (r *LocalRepository) GetLanguageSpec(ctx context.Context, id string) (profile.LanguageSpec, error) {
	if id == "" {
		return profile.LanguageSpec{}, appErr.ValidationError("language", "required")
	}
	lang, ok := r.languages[id]
	if !ok {
		return profile.LanguageSpec{}, appErr.Newf(appErr.LanguageNotSupported, "language not supported: %s", id)
	}
	return lang, nil
}

// ListLanguages returns every configured language ordered by id.
func (r *LocalRepository) ListLanguages(ctx context.Context) []profile.LanguageSpec {
	out := make([]profile.LanguageSpec, 0, len(r.languages))
	for _, lang := range r.languages {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
