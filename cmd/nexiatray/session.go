package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/protocol"
)

func newSessionCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Control the voice session of a running relay",
	}

	remote := func(use, short, command string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				settings, err := opts.settings()
				if err != nil {
					return err
				}
				client, err := newServiceClient(settings)
				if err != nil {
					return err
				}
				out, err := client.Call(cmd.Context(), command, nil, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			},
		}
	}

	cmd.AddCommand(
		remote("start", "Start the voice session", dispatch.CommandStartSession),
		remote("stop", "Stop the voice session", dispatch.CommandStopSession),
		remote("info", "Show the voice session state", protocol.CommandSessionInfo),
	)
	return cmd
}

func newProcessCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <audio-file|->",
		Short: "Submit a recorded voice command to a running relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings()
			if err != nil {
				return err
			}
			audio, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			client, err := newServiceClient(settings)
			if err != nil {
				return err
			}
			out, err := client.Call(cmd.Context(), dispatch.CommandProcessCommand, audio, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
