package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/rules"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tool and rule set versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hipaa-audit %s\n", Version)
			m, err := rules.Default().LoadManifest()
			if err != nil {
				fmt.Fprintf(out, "rule set: unavailable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "rule set: %s\n", m.Version)
			return nil
		},
	}
}
