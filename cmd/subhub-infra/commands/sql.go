package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/subhub-ai/infra/internal/warehouse"
)

// NewSQLCommand creates the sql command
func NewSQLCommand(cmdCtx *Context) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run a query against the data warehouse",
		Long: `Run a SQL query against the configured warehouse and print the
result. Connection credentials come from the secret store.

Examples:
  # JSON output (default)
  subhub-infra sql "SELECT id, total FROM orders LIMIT 10"

  # Tab-separated output for spreadsheets
  subhub-infra sql "SELECT * FROM orders LIMIT 10" --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(cmdCtx)
			if err != nil {
				return err
			}

			ctx := context.Background()
			wh, err := client.Warehouse(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			result, err := wh.Query(ctx, args[0])
			if err != nil {
				return err
			}

			out, err := warehouse.Format(result, format)
			if err != nil {
				return err
			}

			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, text")

	return cmd
}
