package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aravind45/whynointerviews/internal/protect"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new encryption key",
	Long: `Generate a new hex-encoded key suitable for sealing stored resume content.

Set the generated value as retention.encryptionKey (or WHYNOINT_RETENTION_ENCRYPTIONKEY)
before starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := protect.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		fmt.Println(key)
		return nil
	},
}
