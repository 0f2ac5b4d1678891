package commands

import (
	"fmt"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/fivetwenty-io/restcrud/pkg/natsbus"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInvalidateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <resource> [endpoint-prefix]",
		Short: "Invalidate cached results in other processes",
		Long: `Publish a cache invalidation on the NATS subject configured with nats.url
and nats.subject.

Every registry listening on the subject drops the resource's entries whose
key starts with endpoint-prefix, or all of them without a prefix. Prefixes
are plain string matches: "get" also clears "getAll".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			natsURL := rt.settings.GetString(constants.SettingNATSURL, "")
			if natsURL == "" {
				return constants.ErrNoInvalidationBus
			}

			bus, err := natsbus.Connect(&natsbus.Config{
				URL:     natsURL,
				Subject: rt.settings.GetString(constants.SettingNATSSubject, constants.DefaultInvalidationSubject),
				Name:    "crudctl",
			})
			if err != nil {
				return err
			}
			defer func() { _ = bus.Close() }()

			inv := crud.Invalidation{Origin: uuid.NewString(), Resource: args[0], All: true}
			if len(args) == 2 {
				inv.Prefix = args[1]
				inv.All = false
			}

			err = bus.Publish(inv)
			if err != nil {
				return err
			}

			err = bus.Flush()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(rt.out, "%s Invalidation for %s published on %s\n", constants.CheckMarkSymbol, args[0], bus.Subject())

			return nil
		},
	}
}
