package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"erdgraph/internal/logger"
	"erdgraph/internal/render"
)

func dotCommand() *cli.Command {
	return &cli.Command{
		Name:  "dot",
		Usage: "write the schema as a Graphviz dot file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output file, - for stdout (default from config, else schema.dot)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tables, s, err := extract(ctx, cmd)
			if err != nil {
				return err
			}
			out := firstNonEmpty(cmd.String("out"), s.output, "schema.dot")
			if out == "-" {
				return render.Dot(os.Stdout, tables)
			}
			if err := render.WriteDotFile(out, tables); err != nil {
				return err
			}
			logger.Info("wrote %d tables to %s", len(tables), out)
			return nil
		},
	}
}
