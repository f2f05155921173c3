package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// configTemplate is the shape of the generated confluence-sync.yaml. The
// API token is deliberately absent: credentials belong in the environment
// or a .env file.
type configTemplate struct {
	URL         string   `yaml:"url"`
	Username    string   `yaml:"username"`
	Space       string   `yaml:"space"`
	ParentID    string   `yaml:"parent_id"`
	Directory   string   `yaml:"directory"`
	Ignore      []string `yaml:"ignore"`
	Concurrency int      `yaml:"concurrency"`
}

const templateHeader = `# confluence-sync configuration.
# The API token is read from the CONFLUENCE_API_TOKEN environment variable
# (a .env file next to this one works too) and is never stored here.
`

// NewInitCommand creates the init command.
func (a *App) NewInitCommand() *cobra.Command {
	var check, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration template and verify the connection",
		Long: `Init writes a confluence-sync.yaml template into the current directory,
pre-filled with any values already configured through flags or environment
variables.

With --check no file is written; instead the configured credentials are
verified by listing the configured space.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check {
				return a.checkConnection(cmd)
			}
			return a.writeTemplate(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "verify credentials against the configured space instead of writing a template")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}

func (a *App) writeTemplate(cmd *cobra.Command, force bool) error {
	path := "confluence-sync.yaml"
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewConfigError("init", path+" already exists (use --force to overwrite)", nil)
	}

	template := configTemplate{
		URL:         a.config.BaseURL,
		Username:    a.config.Username,
		Space:       a.config.SpaceKey,
		ParentID:    a.config.ParentID,
		Directory:   a.config.Directory,
		Ignore:      a.config.Ignore,
		Concurrency: a.config.Concurrency,
	}
	if template.URL == "" {
		template.URL = "https://your-site.atlassian.net/wiki"
	}
	if template.Space == "" {
		template.Space = "DOCS"
	}

	body, err := yaml.Marshal(&template)
	if err != nil {
		return errors.NewConfigError("init", "render configuration template", err)
	}

	content := append([]byte(templateHeader), body...)
	if err := os.WriteFile(path, content, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}

	abs, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
	fmt.Fprintln(cmd.OutOrStdout(), "Set CONFLUENCE_API_TOKEN, then run: confluence-sync init --check")
	return nil
}

// checkConnection verifies the configured credentials by listing the space.
func (a *App) checkConnection(cmd *cobra.Command) error {
	service, err := a.Service()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	summaries, err := service.List(ctx, a.config.SpaceKey)
	if err != nil {
		return fmt.Errorf("connection check failed: %w", commandError(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connection OK: space %s has %d pages\n", a.config.SpaceKey, len(summaries))
	return nil
}
