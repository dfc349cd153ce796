package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/logging"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the stored settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.settings()
			if err != nil {
				return err
			}
			return writeSettings(cmd.OutOrStdout(), *settings)
		},
	}

	set := &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Update stored settings, e.g. backend_url=http://localhost:9090",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.ResolveSecret()
			if secret == "" {
				return errors.New("NEXIATRAY_SECRET is required to change stored settings")
			}
			settings, err := config.Load(secret)
			if err != nil {
				return err
			}
			if err := applyAssignments(settings, args); err != nil {
				return err
			}
			settings.Normalize()
			if err := config.Save(settings, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d setting(s)\n", len(args))
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

// applyAssignments decodes key=value pairs onto settings using the YAML key
// names. Unknown keys are rejected.
func applyAssignments(settings *config.Settings, assignments []string) error {
	input := make(map[string]any, len(assignments))
	for _, raw := range assignments {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid assignment %q, want key=value", raw)
		}
		if key == "allowed_endpoints" {
			input[key] = config.ParseList(value)
			continue
		}
		input[key] = strings.TrimSpace(value)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           settings,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	return nil
}

func writeSettings(w io.Writer, settings config.Settings) error {
	if settings.BackendToken != "" {
		settings.BackendToken = logging.MaskIdentifier(settings.BackendToken)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Close()
}
