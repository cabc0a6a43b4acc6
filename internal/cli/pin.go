package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/integrity"
)

func init() {
	rootCmd.AddCommand(pinCmd)
}

var pinCmd = &cobra.Command{
	Use:         "pin",
	Short:       "Record the current config checksum in its sidecar",
	Long:        "Validates the config and writes its SHA-256 to <config>" + integrity.SidecarSuffix + ".\nAn invalid config is never pinned.",
	Annotations: noIntegrity,
	RunE:        runPin,
}

func runPin(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := config.Load(path); err != nil {
		return err
	}
	hash, err := integrity.Pin(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s: %s\n", path, hash)
	return nil
}
