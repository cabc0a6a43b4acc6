package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/integrity"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration and pin it",
	Long: "Writes a commented default config to the --config path (default\n" +
		config.DefaultPath + ") and a " + integrity.SidecarSuffix + " sidecar next to it. Once\n" +
		"pinned, every command refuses to run if the config no longer matches.\n" +
		"Run 'plo pin' after editing the config on purpose.",
	Annotations: noIntegrity,
	RunE:        runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	out := cmd.OutOrStdout()

	wrote, err := writeIfMissing(path, config.DefaultYAML())
	if err != nil {
		return err
	}
	if !wrote {
		fmt.Fprintf(out, "%s already exists (use --force to overwrite).\n", path)
		return nil
	}

	hash, err := integrity.Pin(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "plo init complete.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Created:")
	fmt.Fprintf(out, "  %s\n", path)
	fmt.Fprintf(out, "  %s (%s)\n", integrity.SidecarPath(path), hash)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Verify:")
	fmt.Fprintln(out, "  plo doctor")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Evaluate:")
	fmt.Fprintln(out, "  plo evaluate --deadlines 2 --domains 1 --energy 4,3,4")
	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
