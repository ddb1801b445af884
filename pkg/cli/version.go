package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/relmap/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdProposeVersion() *cli.Command {
	return &cli.Command{
		Name:  "propose-version",
		Usage: "Print the release identifier proposed from CI environment or git",
		Action: func(ctx context.Context, c *cli.Command) error {
			version, err := usecase.NewVersionProposer().Propose(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Root().Writer, version)
			return err
		},
	}
}
