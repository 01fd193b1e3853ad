package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/km-arc/falcon/framework/app"
	"github.com/km-arc/falcon/framework/container"
	_ "github.com/km-arc/falcon/framework/providers"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "falcon",
		Short:        "Bootstrap and inspect a falcon container",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default .env)")

	// bootApp is the composition root: the only place that reaches for the
	// process-wide container.
	bootApp := func() (*app.Application, error) {
		application, err := app.New(container.Default(), envFiles...)
		if err != nil {
			return nil, err
		}
		if err := application.Boot(); err != nil {
			return nil, err
		}
		return application, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "boot",
			Short: "Run the configured providers and print the resulting bindings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				application, err := bootApp()
				if err != nil {
					return err
				}
				defer func() { _ = application.Log.Sync() }()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCONCRETE\tSHARED\tRESOLVED")
				for _, b := range application.Bindings() {
					fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", b.ID, b.Concrete, b.Shared, b.Resolved)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the configured providers and serve the HTTP inspector",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				application, err := bootApp()
				if err != nil {
					return err
				}
				defer func() { _ = application.Log.Sync() }()

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return application.Serve(ctx)
			},
		},
		&cobra.Command{
			Use:   "call <id> <method>",
			Short: "Resolve id and call method on it with injected arguments",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := bootApp()
				if err != nil {
					return err
				}
				defer func() { _ = application.Log.Sync() }()

				out, err := application.GetMethod(args[0], args[1])
				if err != nil {
					return err
				}
				if out != nil {
					fmt.Fprintln(cmd.OutOrStdout(), out)
				}
				return nil
			},
		},
	)
	return root
}
