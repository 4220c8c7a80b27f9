// Package translate turns non-Latin text fragments into English words so
// they can become identifiers. Engines are pluggable and selected by name;
// every lookup goes through a persistent cache first.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"
)

// Engine translates one text fragment into English.
type Engine interface {
	// Name identifies the engine in configuration and in the cache.
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}

// Options carries engine credentials and transport settings. Each engine
// reads the fields it needs.
type Options struct {
	AppID    string
	Secret   string
	APIKey   string
	Endpoint string
	// Dictionary backs the "dict" engine.
	Dictionary map[string]string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Factory builds an Engine from Options.
type Factory func(Options) (Engine, error)

var engines = make(map[string]Factory)

// Register adds an engine factory to the registry.
func Register(name string, f Factory) {
	engines[name] = f
}

// Get builds the engine registered under name.
func Get(name string, opts Options) (Engine, error) {
	f, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown translate engine: %s (available: %v)", name, Available())
	}
	return f(opts)
}

// Available returns all registered engine names, sorted.
func Available() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ErrTranslation matches every translation failure with errors.Is.
var ErrTranslation = errors.New("translation failed")

// Error is a failed translation. It is fatal for the generation run: an
// untranslated fragment cannot become an identifier.
type Error struct {
	Engine string
	Text   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("translate %q with %s: %v", e.Text, e.Engine, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTranslation }
