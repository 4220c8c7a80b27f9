package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2api configuration file",
		Long:  "Scaffold a commented swagger2api configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

const defaultConfigName = "swagger2api.yaml"

func runInit(ctx context.Context, w io.Writer, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return withHint(fmt.Sprintf("init: cannot write temp file: %v", err), "choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# swagger2api configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the Swagger document (http/https or local file).
# OpenAPI 3 documents are converted to Swagger 2.0 first.
# input: ./swagger.json

# Output directory. One sub-directory per tag is written below it.
# out: src/services

# Only include operations with these tags (comma-separated or list).
# includeTags: [pet, store]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include these operations, written as "METHOD /path".
# operations:
#   - GET /pet/{petId}

# Import path of the module whose default export performs requests.
# requestModule: "@/utils/request"

# Prefix every request url with the document basePath.
# basePathPrefix: false

# Only declare the definitions each module references.
# treeShake: true

# Where name mappings are persisted. Defaults to <out>/.swagger2api.
# Keep this directory under version control so renames survive.
# stateDir: src/services/.swagger2api

# Engine used to translate non-Latin names (google|baidu|deepl|dict|none).
# translateEngine: google
# translateCache: src/services/.swagger2api/translations.json
# translateAppId: ""
# translateSecret: ""
# translateApiKey: ""
# translateEndpoint: ""

# Fixed translations for the dict engine.
# dictionary:
#   宠物: Pet

# Preview planned outputs without writing files.
# dryRun: false

# Enable verbose logging.
# verbose: false
`
