package cli

import (
	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/pkg/version"
)

// NewVersionCmd prints the build description.
func NewVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			if format != OutputTable {
				return writeStructured(cmd.OutOrStdout(), format, info)
			}
			cmd.Println(info.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or ndjson")
	return cmd
}
