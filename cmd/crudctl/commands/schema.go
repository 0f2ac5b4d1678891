package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newSchemaCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [resource]",
		Short: "List resources and their endpoints",
		Long:  "List the resources known to the client, optionally only one of them, with each endpoint's route, method and capabilities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			names := client.Resources()
			if len(args) == 1 {
				if _, ok := client.Resource(args[0]); !ok {
					return fmt.Errorf("%w: %s", crud.ErrResourceNotFound, args[0])
				}

				names = args
			}

			schema := make(crud.Schema, len(names))

			for _, name := range names {
				res, _ := client.Resource(name)
				endpoints := make(map[string]crud.EndpointDescriptor)

				for _, endpointName := range res.Endpoints() {
					e, _ := res.Endpoint(endpointName)
					endpoints[endpointName] = e.Descriptor()
				}

				schema[name] = endpoints
			}

			return rt.print(schema, func(w io.Writer) error {
				return renderSchema(w, names, schema)
			})
		},
	}
}

func renderSchema(w io.Writer, names []string, schema crud.Schema) error {
	table := tablewriter.NewWriter(w)
	table.Header("Resource", "Endpoint", "Method", "Route", "Capabilities")

	for _, name := range names {
		endpoints := schema[name]

		for _, endpointName := range sortedKeys(endpoints) {
			desc := endpoints[endpointName]
			_ = table.Append(name, endpointName, desc.Method.HTTP(), desc.Route, capabilities(desc))
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// capabilities lists the enabled flags of desc, e.g. "Paginatable, Cachable".
func capabilities(desc crud.EndpointDescriptor) string {
	title := cases.Title(language.English)

	var enabled []string

	for _, flag := range []struct {
		name string
		on   bool
	}{
		{"paginatable", desc.Paginatable},
		{"sortable", desc.Sortable},
		{"filterable", desc.Filterable},
		{"cachable", desc.Cachable},
	} {
		if flag.on {
			enabled = append(enabled, title.String(flag.name))
		}
	}

	if len(enabled) == 0 {
		return constants.NotAvailable
	}

	return strings.Join(enabled, ", ")
}
