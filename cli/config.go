package cli

// This file resolves the run configuration from flags, environment
// variables, an optional YAML file and the git checkout.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const defaultVerbosity = 1

// fileConfig is the layout of the --config file.
type fileConfig struct {
	model.RunConfig `yaml:",inline"`
	Verbosity       *int `yaml:"verbosity"`
}

func loadConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// resolveConfig builds the run configuration. Flags and environment
// variables win over the config file, the git checkout fills in what is
// still missing.
func (a *App) resolveConfig(ctx *cli.Context) (model.RunConfig, error) {
	config := model.RunConfig{
		OrganizationID: ctx.String("organization-id"),
		APIToken:       ctx.String("api-token"),
		Service:        ctx.String("service"),
		Branch:         ctx.String("branch"),
		CommitID:       ctx.String("commit-id"),
		Link:           ctx.String("link"),
		Host:           ctx.String("host"),
		Root:           ctx.String("root"),
		Verbosity:      defaultVerbosity,
	}

	if path := ctx.Path("config"); path != "" {
		fc, err := loadConfigFile(path)
		if err != nil {
			return config, err
		}
		config = config.Merge(fc.RunConfig)
		if fc.Verbosity != nil {
			config.Verbosity = *fc.Verbosity
		}
	}
	if ctx.IsSet("verbosity") {
		config.Verbosity = ctx.Int("verbosity")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config, fmt.Errorf("failed to get working directory: %w", err)
	}

	if config.Root == "" {
		root, err := a.repoRoot(cwd)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Using working directory as project root")
			root = cwd
		}
		config.Root = root
	}
	if !filepath.IsAbs(config.Root) {
		config.Root = filepath.Join(cwd, config.Root)
	}

	if config.Branch == "" || config.CommitID == "" {
		commit, branch, err := a.getGitInfo(cwd)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Git information unavailable")
		} else {
			config = config.Merge(model.RunConfig{Branch: branch, CommitID: commit})
		}
	}

	return config, nil
}
