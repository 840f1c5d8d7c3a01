package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	inferrors "github.com/subhub-ai/infra/internal/errors"
	"github.com/subhub-ai/infra/internal/looker"
)

// NewLookerCommand creates the looker command group
func NewLookerCommand(cmdCtx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "looker",
		Short: "Run queries against the Looker API",
	}

	cmd.AddCommand(newLookerQueryCommand(cmdCtx))

	return cmd
}

func newLookerQueryCommand(cmdCtx *Context) *cobra.Command {
	var (
		model     string
		view      string
		fields    []string
		filters   []string
		sorts     []string
		limit     string
		format    string
		queryFile string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run an inline Looker query",
		Long: `Run an inline query against the Looker API and print the result.

Authentication happens automatically using credentials from the
configured secret store.

Examples:
  # Query an explore
  subhub-infra looker query --model sales --view orders \
    --fields orders.id,orders.total --limit 100

  # Apply filters
  subhub-infra looker query --model sales --view orders \
    --fields orders.total --filter "orders.created_date=last 7 days"

  # CSV output
  subhub-infra looker query --model sales --view orders \
    --fields orders.id --format csv

  # Load the query body from a file
  subhub-infra looker query --file query.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var query looker.Query
			if queryFile != "" {
				data, err := os.ReadFile(queryFile)
				if err != nil {
					return inferrors.UserError{
						Message:    fmt.Sprintf("Failed to read query file %q", queryFile),
						Details:    err.Error(),
						Suggestion: "Check the file path",
						Err:        err,
					}
				}
				if err := json.Unmarshal(data, &query); err != nil {
					return inferrors.UserError{
						Message:    fmt.Sprintf("Invalid query file %q", queryFile),
						Details:    err.Error(),
						Suggestion: "The file must hold a JSON query body with model and view",
						Err:        err,
					}
				}
			} else {
				if model == "" || view == "" {
					return inferrors.UserError{
						Message:    "A query needs --model and --view, or --file",
						Suggestion: "Pass --model and --view, or point --file at a JSON query body",
					}
				}

				filterMap := make(map[string]string)
				for _, f := range filters {
					key, value, found := strings.Cut(f, "=")
					if !found {
						return inferrors.UserError{
							Message:    fmt.Sprintf("Invalid filter: %q", f),
							Suggestion: "Use --filter \"field=value\"",
						}
					}
					filterMap[key] = value
				}

				query = looker.Query{
					Model:   model,
					View:    view,
					Fields:  fields,
					Filters: filterMap,
					Sorts:   sorts,
					Limit:   limit,
				}
			}

			client, err := buildClient(cmdCtx)
			if err != nil {
				return err
			}

			ctx := context.Background()
			session, err := client.Looker(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			result, err := session.ExecuteQuery(ctx, query, format)
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(result.Raw)
			return err
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Looker model name")
	cmd.Flags().StringVar(&view, "view", "", "Looker view/explore name")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to select")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as field=value (repeatable)")
	cmd.Flags().StringSliceVar(&sorts, "sorts", nil, "Sort fields")
	cmd.Flags().StringVar(&limit, "limit", "", "Row limit")
	cmd.Flags().StringVar(&format, "format", "json", "Result format: json, csv, txt")
	cmd.Flags().StringVar(&queryFile, "file", "", "Read the query body from a JSON file")

	return cmd
}
