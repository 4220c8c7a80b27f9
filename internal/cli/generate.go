package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2api/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2api/internal/generate"
	"github.com/mark3labs/swagger2api/internal/logging"
	"github.com/mark3labs/swagger2api/internal/naming"
	genspec "github.com/mark3labs/swagger2api/internal/spec"
	"github.com/mark3labs/swagger2api/internal/translate"
)

// EngineNone disables translation; non-Latin names then fail generation.
const EngineNone = "none"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input          string
	Out            string
	IncludeTags    []string
	ExcludeTags    []string
	Operations     []string
	RequestModule  string
	BasePathPrefix bool
	TreeShake      bool
	StateDir       string

	TranslateEngine   string
	TranslateCache    string
	TranslateAppID    string
	TranslateSecret   string
	TranslateAPIKey   string
	TranslateEndpoint string
	Dictionary        map[string]string

	ConfigPath string
	DryRun     bool
	Verbose    bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:             "src/services",
		RequestModule:   "@/utils/request",
		TreeShake:       true,
		TranslateEngine: "google",
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate TypeScript request modules from a Swagger document",
		Long: "Generate TypeScript request modules from a Swagger 2.0 (or OpenAPI 3) document. " +
			"Names chosen on earlier runs are kept. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2api generate --input swagger.json --out ./src/services
  swagger2api generate --input spec.yaml --operation "GET /pets/{id}" --dry-run
  swagger2api --config swagger2api.yaml generate --include-tags pet`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory for generated modules (default src/services)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringArray("operation", nil, `Only include this operation, as "METHOD /path" (repeatable)`)
	flags.String("request-module", "", "Import path of the request helper (default @/utils/request)")
	flags.Bool("base-path-prefix", false, "Prefix request urls with the document basePath")
	flags.Bool("tree-shake", true, "Only declare the definitions each module references")
	flags.String("state-dir", "", "Directory for persisted name mappings (default <out>/.swagger2api)")
	flags.String("translate-engine", "", fmt.Sprintf("Translation engine for non-Latin names (%s)", strings.Join(engineChoices(), "|")))
	flags.String("translate-cache", "", "Translation cache file (default <state-dir>/translations.json)")
	flags.String("translate-app-id", "", "Translation engine app id")
	flags.String("translate-secret", "", "Translation engine secret")
	flags.String("translate-api-key", "", "Translation engine API key")
	flags.String("translate-endpoint", "", "Override the translation engine endpoint")
	flags.StringToString("dict", nil, "Dictionary entries for the dict engine (text=Translation)")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")

	return cmd
}

func engineChoices() []string {
	return append(translate.Available(), EngineNone)
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":              &cfg.Input,
		"out":                &cfg.Out,
		"request-module":     &cfg.RequestModule,
		"state-dir":          &cfg.StateDir,
		"translate-engine":   &cfg.TranslateEngine,
		"translate-cache":    &cfg.TranslateCache,
		"translate-app-id":   &cfg.TranslateAppID,
		"translate-secret":   &cfg.TranslateSecret,
		"translate-api-key":  &cfg.TranslateAPIKey,
		"translate-endpoint": &cfg.TranslateEndpoint,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	bools := map[string]*bool{
		"base-path-prefix": &cfg.BasePathPrefix,
		"tree-shake":       &cfg.TreeShake,
		"dry-run":          &cfg.DryRun,
		"verbose":          &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	if flags.Changed("include-tags") {
		value, err := flags.GetStringSlice("include-tags")
		if err != nil {
			return err
		}
		cfg.IncludeTags = sanitizeTags(value)
	}
	if flags.Changed("exclude-tags") {
		value, err := flags.GetStringSlice("exclude-tags")
		if err != nil {
			return err
		}
		cfg.ExcludeTags = sanitizeTags(value)
	}
	if flags.Changed("operation") {
		value, err := flags.GetStringArray("operation")
		if err != nil {
			return err
		}
		cfg.Operations = value
	}
	if flags.Changed("dict") {
		value, err := flags.GetStringToString("dict")
		if err != nil {
			return err
		}
		if cfg.Dictionary == nil {
			cfg.Dictionary = map[string]string{}
		}
		for k, v := range value {
			cfg.Dictionary[k] = v
		}
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.RequestModule = strings.TrimSpace(c.RequestModule)
	c.StateDir = strings.TrimSpace(c.StateDir)
	c.TranslateEngine = strings.ToLower(strings.TrimSpace(c.TranslateEngine))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Operations = sanitizeTags(c.Operations)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Out == "" {
		return newUsageError("generate: --out must not be empty")
	}
	if c.RequestModule == "" {
		return newUsageError("generate: --request-module must not be empty")
	}
	if c.TranslateEngine == "" {
		c.TranslateEngine = EngineNone
	}
	if !slices.Contains(engineChoices(), c.TranslateEngine) {
		return newUsageError(fmt.Sprintf("generate: unsupported --translate-engine %q (allowed: %s)", c.TranslateEngine, strings.Join(engineChoices(), ", ")))
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	if err := c.selection().Validate(); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}

	return nil
}

func (c *GenerateConfig) selection() genspec.Selection {
	return genspec.Selection{IncludeTags: c.IncludeTags, ExcludeTags: c.ExcludeTags, Operations: c.Operations}
}

func (c *GenerateConfig) stateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	return filepath.Join(c.Out, generate.StateDirName)
}

func runGenerate(ctx context.Context, out io.Writer, cfg *GenerateConfig) error {
	log := logging.NewText(os.Stderr, cfg.Verbose)

	// 1) Load the document (file or http/https URL), down-converting OpenAPI 3
	doc, err := genspec.Load(ctx, cfg.Input, genspec.WithLogger(log))
	if err != nil {
		// Map structured spec errors into friendly messages
		var se *genspec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return newUsageError(msg)
		}
		return err
	}

	// 2) Wire the namer to the configured translation engine and cache
	namer, err := newNamer(cfg, log)
	if err != nil {
		return err
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	// 3) Run the pipeline
	sum, err := generate.Run(ctx, doc, generate.Options{
		Selection:      cfg.selection(),
		OutDir:         cfg.Out,
		RequestModule:  cfg.RequestModule,
		BasePathPrefix: cfg.BasePathPrefix,
		TreeShake:      cfg.TreeShake,
		StateDir:       cfg.stateDir(),
		Namer:          namer,
		Logger:         log,
		DryRun:         cfg.DryRun,
		Progress: func(current, total int) {
			log.Debug("converted schema", "current", current, "total", total)
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, translate.ErrTranslation), errors.Is(err, naming.ErrNoTranslator):
			return withHint(fmt.Sprintf("naming: %v", err), "pick another --translate-engine or add --dict entries.", err)
		}
		var we *tsemitter.WriteError
		if errors.As(err, &we) {
			return wrapOutputError(err, absOut)
		}
		return err
	}

	if cfg.DryRun {
		paths := make([]string, 0, len(sum.Files))
		for _, p := range sum.Files {
			paths = append(paths, p.RelPath)
		}
		printPlan(out, absOut, len(sum.Files), paths)
		return nil
	}
	printSummary(out, absOut, sum)
	return nil
}

// newNamer returns a Namer translating through the configured engine.
func newNamer(cfg *GenerateConfig, log logging.Logger) (*naming.Namer, error) {
	if cfg.TranslateEngine == EngineNone {
		return naming.NewNamer(nil, log), nil
	}
	engine, err := translate.Get(cfg.TranslateEngine, translate.Options{
		AppID:      cfg.TranslateAppID,
		Secret:     cfg.TranslateSecret,
		APIKey:     cfg.TranslateAPIKey,
		Endpoint:   cfg.TranslateEndpoint,
		Dictionary: cfg.Dictionary,
	})
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("generate: translate engine %s: %v", cfg.TranslateEngine, err))
	}
	cachePath := cfg.TranslateCache
	if cachePath == "" {
		cachePath = filepath.Join(cfg.stateDir(), "translations.json")
	}
	cache, err := translate.LoadCache(cachePath)
	if err != nil {
		log.Warn("starting with an empty translation cache", "path", cachePath, "error", err)
	}
	if cfg.DryRun {
		cache.Detach()
	}
	return naming.NewNamer(translate.NewService(engine, cache, log), log), nil
}

func printPlan(w io.Writer, outDir string, count int, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	return withHint(fmt.Sprintf("output error for %s: %v", outDir, err), "choose a different --out or check directory permissions.", err)
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strs := map[string]*string{
		"input":             &cfg.Input,
		"out":               &cfg.Out,
		"requestmodule":     &cfg.RequestModule,
		"statedir":          &cfg.StateDir,
		"translateengine":   &cfg.TranslateEngine,
		"translatecache":    &cfg.TranslateCache,
		"translateappid":    &cfg.TranslateAppID,
		"translatesecret":   &cfg.TranslateSecret,
		"translateapikey":   &cfg.TranslateAPIKey,
		"translateendpoint": &cfg.TranslateEndpoint,
	}
	bools := map[string]*bool{
		"basepathprefix": &cfg.BasePathPrefix,
		"treeshake":      &cfg.TreeShake,
		"dryrun":         &cfg.DryRun,
		"verbose":        &cfg.Verbose,
	}
	lists := map[string]*[]string{
		"includetags": &cfg.IncludeTags,
		"excludetags": &cfg.ExcludeTags,
		"operations":  &cfg.Operations,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		if dst, ok := lists[normalized]; ok {
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = sanitizeTags(list)
			continue
		}
		switch normalized {
		case "dictionary":
			dict, err := valueAsStringMap(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Dictionary = dict
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsStringMap(v any) (map[string]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", k, err)
			}
			out[k] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected mapping, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
