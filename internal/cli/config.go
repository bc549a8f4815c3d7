package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-studygen/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-studygen/config.yaml
($XDG_CONFIG_HOME/go-studygen/config.yaml when set). Every key can be
overridden with a STUDYGEN_ environment variable: generation.concurrency
becomes STUDYGEN_GENERATION_CONCURRENCY.

API keys are read from the environment only.`,
		Example: `  studygen config set provider openai
  studygen config set generation.concurrency 3
  studygen config get retry.max_attempts
  studygen config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

The value is validated against the whole configuration before it is written.
output_dir is created if it doesn't exist.`,
		Example: `  studygen config set model.default gpt-4o-mini
  studygen config set retry.initial_delay 1s
  studygen config set cache.redis_url redis://localhost:6379/0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a configuration key
(default, config file or environment override).`,
		Example: `  studygen config get provider`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `List the effective value of every configuration key.`,
		Example: `  studygen config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if key == config.KeyOutputDir {
		value = config.ExpandPath(value)
		if err := ensureDir(value); err != nil {
			return fmt.Errorf("invalid output_dir: %w", err)
		}
	}

	if err := config.Set(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command, in key order.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}
	for _, key := range config.Keys() {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}
