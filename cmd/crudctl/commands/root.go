package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/catalog"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/fivetwenty-io/restcrud/pkg/crudclient"
	"github.com/fivetwenty-io/restcrud/pkg/logging"
	"github.com/fivetwenty-io/restcrud/pkg/settings"
	"github.com/spf13/cobra"
)

// runtime is the state shared by the subcommands of one invocation.
type runtime struct {
	configFile    string
	verbose       bool
	headers       []string
	staticCatalog bool

	settings *settings.Settings
	out      io.Writer
	errOut   io.Writer
}

// NewRootCommand creates the crudctl command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   "crudctl",
		Short: "Call REST endpoints described by an endpoint schema",
		Long: `A command-line interface for APIs that publish their endpoints at
schema/endpoints.

Resources and endpoints are discovered from the server unless --catalog is
given, in which case the built-in object, category and user endpoints are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&rt.configFile, "config", "c", "", "config file (default is $HOME/.restcrud/config.yml)")
	flags.StringP("api", "a", "", "API endpoint URL")
	flags.StringP("token", "t", "", "authentication token")
	flags.StringP("output", "o", "", "output format (table, json, yaml), table on a terminal and json otherwise")
	flags.BoolVarP(&rt.verbose, "verbose", "v", false, "log requests and responses")
	flags.StringArrayVarP(&rt.headers, "header", "H", nil, "extra request header 'Name: value' (repeatable)")
	flags.BoolVar(&rt.staticCatalog, "catalog", false, "use the built-in entity endpoints instead of schema discovery")

	cmd.AddCommand(newVersionCommand(rt, version, commit, date))
	cmd.AddCommand(newSchemaCommand(rt))
	cmd.AddCommand(newCallCommand(rt))
	cmd.AddCommand(newGetCommand(rt))
	cmd.AddCommand(newImageCommand(rt))
	cmd.AddCommand(newInvalidateCommand(rt))
	cmd.AddCommand(newConfigCommand(rt))

	return cmd
}

func (rt *runtime) init(cmd *cobra.Command) error {
	var opts []settings.Option
	if rt.configFile != "" {
		opts = append(opts, settings.WithConfigFile(rt.configFile))
	}

	rt.settings = settings.New(opts...)
	rt.out = cmd.OutOrStdout()
	rt.errOut = cmd.ErrOrStderr()

	flags := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		constants.SettingAPIURL:    "api",
		constants.SettingAuthToken: "token",
		constants.SettingOutput:    "output",
	}

	for key, name := range bindings {
		err := rt.settings.Viper().BindPFlag(key, flags.Lookup(name))
		if err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	err := rt.settings.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	if rt.verbose && rt.settings.ConfigFileUsed() != "" {
		_, _ = fmt.Fprintln(rt.errOut, "Using config file:", rt.settings.ConfigFileUsed())
	}

	return nil
}

// client creates an API client. With withResources the registry is filled
// either from the server schema or from the built-in catalog.
func (rt *runtime) client(ctx context.Context, withResources bool) (*crudclient.Client, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Output = rt.errOut
	logCfg.Level = rt.settings.GetString(constants.SettingLogLevel, logCfg.Level)

	if rt.verbose {
		logCfg.Level = "debug"
	}

	config := &crud.Config{
		Debug:          rt.verbose,
		Logger:         logging.New(logCfg),
		DiscoverSchema: withResources && !rt.staticCatalog,
	}

	if len(rt.headers) > 0 {
		headers, err := parseHeaders(rt.headers)
		if err != nil {
			return nil, err
		}

		chain := crud.NewInterceptorChain()
		chain.AddRequestInterceptor(crud.HeaderInterceptor(headers))
		config.Interceptors = chain
	}

	client, err := crudclient.NewFromSettings(ctx, rt.settings, config)
	if err != nil {
		return nil, err
	}

	if withResources && rt.staticCatalog {
		_, err = catalog.Register(client.Registry)
		if err != nil {
			_ = client.Close()

			return nil, err
		}
	}

	return client, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))

	for _, value := range values {
		name, val, ok := strings.Cut(value, ":")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, value)
		}

		headers[name] = strings.TrimSpace(val)
	}

	return headers, nil
}
