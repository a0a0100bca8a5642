package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
)

//go:embed templates/hostaudit.yaml templates/policy.yaml
var configTemplates embed.FS

// configFileName is the default configuration file name.
const configFileName = ".hostaudit"

// examplePolicyName is the default name for the generated example policy.
const examplePolicyName = "baseline.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new hostaudit configuration file",
		Long: `Initialize creates a new .hostaudit configuration file in the current directory.

The generated file includes:
- Path overrides for auditing container roots and mounted images
- Per-policy tuning (proxy, concurrency, hash algorithm)
- Default file trees for snapshot collection

With --policy, an example policy file with one control per check type is
written alongside it.

Examples:
  # Create .hostaudit in current directory
  hostaudit init

  # Create config file at a specific path
  hostaudit init -o myconfig.yaml

  # Also write an example policy
  hostaudit init --policy

  # Force overwrite existing files
  hostaudit init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().Bool("policy", false,
		"Also write an example policy file ("+examplePolicyName+")")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	withPolicy, err := cmd.Flags().GetBool("policy")
	if err != nil {
		return err
	}

	if err := writeTemplate("templates/hostaudit.yaml", outputPath, force); err != nil {
		return err
	}
	fmt.Printf("Created configuration file: %s\n", outputPath)

	if withPolicy {
		if err := writeTemplate("templates/policy.yaml", examplePolicyName, force); err != nil {
			return err
		}
		fmt.Printf("Created example policy: %s\n", examplePolicyName)
	}

	fmt.Println("\nEdit the configuration to set:")
	fmt.Println("  - Path overrides for container roots or mounted images")
	fmt.Println("  - File trees to include in snapshots")
	fmt.Println("  - Per-policy proxy and concurrency tuning")

	return nil
}

// writeTemplate writes one embedded template to disk, refusing to overwrite
// unless force is set.
func writeTemplate(templateName, outputPath string, force bool) error {
	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplates.ReadFile(templateName)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Atomic write so an interrupted init never leaves a truncated config
	if err := renameio.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
