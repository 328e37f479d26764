package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/audit"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/browser"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/logging"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/report"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/rules"
	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/ui"
	"github.com/yorozuya-cybersecurity/hipaa-audit/pkg/utils"
)

func runAudit(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()
	if len(args) == 0 {
		fmt.Fprintf(stderr, "Usage: %s\n", cmd.UseLine())
		return errUsage
	}
	target, err := utils.ParseTarget(args[0])
	if err != nil {
		if errors.Is(err, utils.ErrMissingTarget) {
			fmt.Fprintf(stderr, "Usage: %s\n", cmd.UseLine())
			return errUsage
		}
		fmt.Fprintf(stderr, "Invalid URL: %s\n", args[0])
		return errUsage
	}

	v, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(v.GetBool(keyDebug))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With("run_id", uuid.NewString())

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	a := audit.New(auditConfig(v), rules.Default(), browser.Chrome{})
	a.Renderer = report.New(cmd.OutOrStdout())
	a.Progress = ui.NewProgress(stderr)
	a.Err = stderr
	a.Log = log

	log.Debugw("starting audit", "target", target.String())
	_, err = a.Run(ctx, target.String())
	return err
}
