package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "0.1.0"
	rootCmd *cobra.Command
)

// errUsage marks a failure whose message has already been printed.
var errUsage = errors.New("usage")

func init() {
	rootCmd = newRootCmd(os.Stdout, os.Stderr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hipaa-audit <url>",
		Short: "Audit a web page for health-privacy and security issues",
		Long: "hipaa-audit loads a page in a headless browser, checks network traffic, " +
			"security headers and forms against its rule set, and prints a findings report " +
			"with a prioritized action plan.",
		Example:       "hipaa-audit https://clinic.example.com/book",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAudit,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		os.Exit(1)
	}
}
