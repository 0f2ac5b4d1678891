package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// secretKeys are masked by config show.
var secretKeys = []string{"token", "password", "client_secret", "secret"}

func newConfigCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings read from the config file and RESTCRUD_* environment variables",
	}

	cmd.AddCommand(newConfigShowCommand(rt))
	cmd.AddCommand(newConfigSetCommand(rt))

	return cmd
}

func newConfigShowCommand(rt *runtime) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the merged configuration. Secrets are masked unless --show-secrets is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := rt.settings.AllSettings()
			if !showSecrets {
				all = maskSecrets(all)
			}

			flat := make(map[string]string)
			flatten("", all, flat)

			return rt.print(all, func(w io.Writer) error {
				if file := rt.settings.ConfigFileUsed(); file != "" {
					_, _ = fmt.Fprintf(w, "Config file: %s\n", file)
				}

				table := tablewriter.NewWriter(w)
				table.Header("Key", "Value")

				for _, key := range sortedKeys(flat) {
					_ = table.Append(key, flat[key])
				}

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show tokens and passwords")

	return cmd
}

func newConfigSetCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a dotted-path configuration value (e.g. api.url) and write the config file",
		Example: `  crudctl config set api.url https://api.example.com/api/
  crudctl config set storage.location https://cdn.example.com
  crudctl config set nats.url nats://localhost:4222`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.settings.Set(args[0], args[1])

			err := rt.settings.Save()
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(rt.out, "%s %s updated\n", constants.CheckMarkSymbol, args[0])

			return nil
		},
	}
}

// maskSecrets copies settings, replacing the values of secretKeys.
func maskSecrets(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))

	for key, value := range values {
		switch {
		case slices.Contains(secretKeys, strings.ToLower(key)):
			if value != nil && value != "" {
				value = constants.MaskedSecret
			}
		default:
			if nested, ok := value.(map[string]any); ok {
				value = maskSecrets(nested)
			}
		}

		out[key] = value
	}

	return out
}

// flatten writes nested settings as dotted keys.
func flatten(prefix string, values map[string]any, out map[string]string) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			flatten(path, nested, out)

			continue
		}

		out[path] = cell(value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
