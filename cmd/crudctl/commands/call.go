package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCallCommand(rt *runtime) *cobra.Command {
	var (
		filters []string
		offset  int
		limit   int
		sortBy  string
		order   string
		body    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "call <resource> <endpoint> [name=value...]",
		Short: "Call an endpoint",
		Long: `Call an endpoint of a resource.

Each name=value argument fills the route placeholder :name. Arguments the
route does not use are sent as the JSON body of post and put endpoints
without --body, and as query parameters otherwise.

--body takes inline JSON or @path to a JSON or YAML file.`,
		Example: `  crudctl call user get guid=42
  crudctl call object getAll --limit 20 --sort-by name --order asc --filter status=published
  crudctl call user checkEmailAvailability email=someone@example.com
  crudctl call category update guid=7 --body @category.yaml`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}

			filterValues, err := parseParams(filters)
			if err != nil {
				return err
			}

			requestBody, err := parseBody(body)
			if err != nil {
				return err
			}

			opts := crud.NewOptions().WithPage(offset, limit).WithSort(sortBy, order)
			for name, value := range filterValues {
				opts.WithFilter(name, value)
			}

			if force {
				opts.WithForce()
			}

			client, err := rt.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			endpoint, err := client.Endpoint(args[0], args[1])
			if err != nil {
				return err
			}

			data, err := endpoint.Do(cmd.Context(), opts, params, requestBody)
			if err != nil {
				return err
			}

			return rt.printData(data)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter name=value, sent as filters[name] (repeatable)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "field to sort by")
	cmd.Flags().StringVar(&order, "order", "", "sort order, only sent with --sort-by")
	cmd.Flags().StringVar(&body, "body", "", "request body as JSON, or @file")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the result cache")

	return cmd
}

// parseParams turns name=value arguments into parameters.
func parseParams(args []string) (crud.Params, error) {
	params := make(crud.Params, len(args))

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidParam, arg)
		}

		params[name] = value
	}

	return params, nil
}

// parseBody reads --body. An empty value means no body, returned as an
// untyped nil so the endpoint can forward leftover parameters instead.
func parseBody(value string) (any, error) {
	if value == "" {
		return nil, nil
	}

	data := []byte(value)

	if path, ok := strings.CutPrefix(value, "@"); ok {
		content, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}

		data = content

		if ext := strings.ToLower(filepath.Ext(path)); slices.Contains([]string{".yml", ".yaml"}, ext) {
			var decoded any

			err = yaml.Unmarshal(content, &decoded)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", constants.ErrInvalidBody, err)
			}

			data, err = json.Marshal(decoded)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", constants.ErrInvalidBody, err)
			}
		}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not valid JSON", constants.ErrInvalidBody)
	}

	return json.RawMessage(data), nil
}
