package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/relay"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ecosystem status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.settings()
			if err != nil {
				return err
			}
			r := relay.FromSettings(settings, nil)
			if asJSON {
				out, err := r.EcosystemStatus(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			renderStatus(cmd.OutOrStdout(), termenv.ColorProfile(), r.Status(), r.BaseURL())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status JSON")
	return cmd
}

func renderStatus(w io.Writer, p termenv.Profile, status relay.EcosystemStatus, backend string) {
	title := termenv.String("Nexia ecosystem").Bold()
	health := termenv.String(status.Health).Foreground(p.Color("#22c55e"))
	if status.Health != relay.HealthOperational {
		health = termenv.String(status.Health).Foreground(p.Color("#ef4444"))
	}

	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "  health:   %s\n", health)
	fmt.Fprintf(w, "  backend:  %s\n", backend)
	fmt.Fprintf(w, "  checked:  %s\n", status.Timestamp)
	fmt.Fprintln(w, "  services:")
	for _, name := range status.Services {
		fmt.Fprintf(w, "    - %s\n", termenv.String(name).Foreground(p.Color("#818cf8")))
	}
}
