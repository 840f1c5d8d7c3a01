package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// NewCompletionCommand creates the completion command for generating shell completions.
func NewCompletionCommand(cmdCtx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for subhub-infra.

To load completions:

Bash:
  $ source <(subhub-infra completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ subhub-infra completion bash > /etc/bash_completion.d/subhub-infra
  # macOS:
  $ subhub-infra completion bash > $(brew --prefix)/etc/bash_completion.d/subhub-infra

Zsh:
  $ subhub-infra completion zsh > "${fpath[1]}/_subhub-infra"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ subhub-infra completion fish | source

  # To load completions for each session, execute once:
  $ subhub-infra completion fish > ~/.config/fish/completions/subhub-infra.fish

PowerShell:
  PS> subhub-infra completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
