package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ServiceHealth holds the check result for a single service
type ServiceHealth struct {
	Name    string
	Status  string
	Message string
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(cmdCtx *Context) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check service connectivity and configuration",
		Long: `Verify that the configured services are reachable.

This command checks:
- Configuration file validity
- Secret store authentication and connectivity
- Looker API login (when configured)
- Warehouse connectivity (when configured)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx.Logger.Info("Checking subhub-infra configuration...")
			client, err := buildClient(cmdCtx)
			if err != nil {
				cmdCtx.Logger.Error("Configuration error: %v", err)
				return err
			}
			cmdCtx.Logger.Info("Configuration loaded successfully")

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			defer func() { _ = client.Close(ctx) }()

			def := cmdCtx.Config.Definition
			var results []ServiceHealth

			// Secret store
			health := ServiceHealth{Name: "secret store (" + def.SecretStore.Type + ")"}
			if provider, err := client.Secrets(ctx); err != nil {
				health.Status = "error"
				health.Message = err.Error()
			} else if err := provider.Validate(ctx); err != nil {
				health.Status = "error"
				health.Message = err.Error()
			} else {
				health.Status = "healthy"
				health.Message = "store is reachable"
			}
			results = append(results, health)

			// Looker
			if def.Looker.Configured() {
				health := ServiceHealth{Name: "looker"}
				if session, err := client.Looker(ctx); err != nil {
					health.Status = "error"
					health.Message = err.Error()
				} else if err := session.Authenticate(ctx); err != nil {
					health.Status = "error"
					health.Message = err.Error()
				} else {
					health.Status = "healthy"
					health.Message = fmt.Sprintf("authenticated, token TTL %s", session.TokenTTL().Round(time.Second))
				}
				results = append(results, health)
			}

			// Warehouse
			if def.Warehouse.Configured() {
				health := ServiceHealth{Name: "warehouse (" + def.Warehouse.Driver + ")"}
				if wh, err := client.Warehouse(ctx); err != nil {
					health.Status = "error"
					health.Message = err.Error()
				} else if err := wh.Ping(ctx); err != nil {
					health.Status = "error"
					health.Message = err.Error()
				} else {
					health.Status = "healthy"
					health.Message = "connection verified"
				}
				results = append(results, health)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tSTATUS\tDETAILS")
			failed := false
			for _, r := range results {
				mark := "✓"
				if r.Status != "healthy" {
					mark = "✗"
					failed = true
				}
				fmt.Fprintf(w, "%s\t%s %s\t%s\n", r.Name, mark, r.Status, r.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failed {
				return fmt.Errorf("one or more services failed their health check")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall check timeout")

	return cmd
}
