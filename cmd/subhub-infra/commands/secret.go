package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subhub-ai/infra/pkg/secrets"
)

// NewSecretCommand creates the secret command group
func NewSecretCommand(cmdCtx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Interact with the configured secret store",
	}

	cmd.AddCommand(
		newSecretGetCommand(cmdCtx),
		newSecretDescribeCommand(cmdCtx),
	)

	return cmd
}

func newSecretGetCommand(cmdCtx *Context) *cobra.Command {
	var (
		version    string
		field      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Get a single secret value",
		Long: `Retrieve a single secret value from the configured store.

By default only the raw value is printed, making it suitable for
scripting.

Examples:
  # Get a secret value
  subhub-infra secret get looker-client-id

  # Get a specific version
  subhub-infra secret get api-key --version 3

  # Extract a field from a JSON secret
  subhub-infra secret get db-config --field password

  # Use in scripts
  export API_KEY=$(subhub-infra secret get api-key)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(cmdCtx)
			if err != nil {
				return err
			}

			ctx := context.Background()
			provider, err := client.Secrets(ctx)
			if err != nil {
				return err
			}

			value, err := provider.Resolve(ctx, secrets.Reference{
				Provider: provider.Name(),
				Key:      args[0],
				Version:  version,
				Field:    field,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				output := map[string]interface{}{
					"name":    args[0],
					"value":   value.Value,
					"version": value.Version,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(output)
			}

			fmt.Print(value.Value)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Secret version (default: latest)")
	cmd.Flags().StringVar(&field, "field", "", "Extract a field from a JSON secret")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	return cmd
}

func newSecretDescribeCommand(cmdCtx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <name>",
		Short: "Show secret metadata without retrieving the value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(cmdCtx)
			if err != nil {
				return err
			}

			ctx := context.Background()
			provider, err := client.Secrets(ctx)
			if err != nil {
				return err
			}

			metadata, err := provider.Describe(ctx, secrets.Reference{
				Provider: provider.Name(),
				Key:      args[0],
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(metadata)
		},
	}

	return cmd
}
