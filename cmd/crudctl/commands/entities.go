package commands

import (
	"fmt"
	"io"

	"github.com/fivetwenty-io/restcrud/pkg/catalog"
	"github.com/fivetwenty-io/restcrud/pkg/resource"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newGetCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <guid>",
		Short: "Fetch an entity by type and guid",
		Long:  "Fetch an entity through the get endpoint of the resource named by type (object, category, user, ...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			data, err := catalog.FromRegistry(client.Registry).Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return rt.printData(data)
		},
	}
}

func newImageCommand(rt *runtime) *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "image <object-guid>",
		Short: "Print the public URL of an object's image",
		Long: `Print the public URL of an object's image, under storage.location.

With --width and --height the closest available size is chosen; otherwise
the original is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := resource.NewResolverFromSettings(rt.settings)
			if err != nil {
				return err
			}

			client, err := rt.client(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			img, err := catalog.FromRegistry(client.Registry).Image(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			imageURL, err := resolver.ImageURL(img, width, height)
			if err != nil {
				return err
			}

			info := struct {
				GUID     string `json:"guid"      yaml:"guid"`
				MimeType string `json:"mime_type" yaml:"mime_type"`
				URL      string `json:"url"       yaml:"url"`
			}{GUID: img.GUID, MimeType: img.MimeType, URL: imageURL}

			return rt.print(info, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")
				_ = table.Append("GUID", info.GUID)
				_ = table.Append("Mime Type", info.MimeType)
				_ = table.Append("URL", info.URL)

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "requested width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "requested height in pixels")

	return cmd
}
