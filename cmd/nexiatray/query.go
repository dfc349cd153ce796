package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/dispatch"
	"github.com/example/nexiatray/internal/relay"
)

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "query <endpoint> [data|-]",
		Short: "POST data to a backend endpoint and print the response body",
		Long: `Sends data to the backend at <backend url><endpoint> and prints the body as returned.
Pass "-" as data to read it from stdin. With --remote the request goes through a running relay.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings()
			if err != nil {
				return err
			}

			data := ""
			if len(args) == 2 {
				data, err = readArg(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
			}

			var out string
			if remote {
				client, err := newServiceClient(settings)
				if err != nil {
					return err
				}
				out, err = client.Call(cmd.Context(), dispatch.CommandQueryBackend, nil, map[string]any{
					"endpoint": args[0],
					"data":     data,
				})
				if err != nil {
					return err
				}
			} else {
				out, err = queryLocal(cmd.Context(), relay.FromSettings(settings, nil), args[0], data)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Send the query through the running relay service")
	return cmd
}

func queryLocal(ctx context.Context, r *relay.Relay, endpoint, data string) (string, error) {
	return r.QueryBackend(ctx, endpoint, data)
}

func readArg(stdin io.Reader, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
