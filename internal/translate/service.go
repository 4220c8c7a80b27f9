package translate

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mark3labs/swagger2api/internal/logging"
)

// Service answers translations from the cache and falls back to the
// engine on a miss. Calls are sequential; a run owns its Service.
type Service struct {
	engine Engine
	cache  *Cache
	log    logging.Logger
	title  cases.Caser
}

func NewService(engine Engine, cache *Cache, log logging.Logger) *Service {
	if cache == nil {
		cache = NewCache("")
	}
	return &Service{
		engine: engine,
		cache:  cache,
		log:    logging.OrNop(log),
		title:  cases.Title(language.English, cases.NoLower),
	}
}

// Translate returns text in English as capitalized words joined without
// separators, e.g. "宠物列表" -> "PetList". Failures are never retried and
// never fall back to the source text.
func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	if v, ok := s.cache.Get(s.engine.Name(), text); ok {
		return v, nil
	}
	raw, err := s.engine.Translate(ctx, text)
	if err != nil {
		return "", &Error{Engine: s.engine.Name(), Text: text, Err: err}
	}
	out := s.words(raw)
	if out == "" {
		return "", &Error{Engine: s.engine.Name(), Text: text, Err: errors.New("translation has no usable letters")}
	}
	for _, r := range out {
		if r > unicode.MaxASCII {
			return "", &Error{Engine: s.engine.Name(), Text: text, Err: errors.New("translation still contains non-Latin text: " + raw)}
		}
	}
	s.cache.Put(s.engine.Name(), text, out)
	if err := s.cache.Save(); err != nil {
		s.log.Warn("could not save translation cache", "error", err)
	}
	s.log.Debug("translated", "engine", s.engine.Name(), "text", text, "result", out)
	return out, nil
}

func (s *Service) words(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(s.title.String(f))
	}
	return sb.String()
}
