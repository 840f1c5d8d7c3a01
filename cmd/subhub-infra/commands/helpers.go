package commands

import (
	"github.com/subhub-ai/infra/internal/config"
	"github.com/subhub-ai/infra/internal/logging"
	"github.com/subhub-ai/infra/pkg/infra"
)

// Context carries state shared by all commands, filled in by the root
// command's PersistentPreRun.
type Context struct {
	Config *config.Config
	Logger *logging.Logger
}

// buildClient loads the config file and constructs the infra client
func buildClient(cmdCtx *Context) (*infra.Client, error) {
	if err := cmdCtx.Config.Load(); err != nil {
		return nil, err
	}

	return infra.New(cmdCtx.Config.Definition, infra.WithLogger(cmdCtx.Logger)), nil
}
