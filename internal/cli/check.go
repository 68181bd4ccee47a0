package cli

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"remote-apt-dater/internal/adapters"
	"remote-apt-dater/internal/types"
)

type checkOptions struct {
	Output string
}

func newCheckCommand() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all hosts once and print pending upgrades",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", string(types.OutputFormatText), "Output format (text, yaml, json)")
	return cmd
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	format, err := parseOutputFormat(resolveString(cmd, opts.Output, "check.output", "output"))
	if err != nil {
		return err
	}
	service, err := newAppService()
	if err != nil {
		return err
	}

	snapshot, checkErr := service.Check(cmd.Context())
	if err := adapters.WriteCheckReport(cmd.OutOrStdout(), snapshot, format); err != nil {
		return err
	}
	return checkErr
}

func parseOutputFormat(value string) (types.OutputFormat, error) {
	switch format := types.OutputFormat(value); format {
	case types.OutputFormatText, types.OutputFormatYAML, types.OutputFormatJSON:
		return format, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported output format %q", value))
	}
}
