package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/wooyang2018/govchain/logger"
)

type RunCmd struct {
	BaseCmd
	EnvConf string
}

func GetRunCmd() *RunCmd {
	c := new(RunCmd)
	c.Cmd = &cobra.Command{
		Use:     "run [scenario.yaml...]",
		Short:   "Run scenarios concurrently, each on a fresh chain.",
		Example: "govsim run -c ./conf/env.yaml ./scenarios/payout.yaml",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.Run(ctx, cmd.OutOrStdout(), args)
		},
	}
	c.Cmd.Flags().StringVarP(&c.EnvConf, "conf", "c", "./conf/env.yaml", "engine environment config file path")
	return c
}

func (c *RunCmd) Run(ctx context.Context, out io.Writer, paths []string) error {
	scenarios, err := loadScenarios(paths)
	if err != nil {
		return err
	}
	runner, reg, err := newRunner(c.EnvConf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	results, err := runner.RunAll(ctx, scenarios)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintf(out, "== %s: %d steps ok\n", res.Name, res.Steps)
		for _, line := range res.Lines {
			fmt.Fprintln(out, "  "+line)
		}
	}
	if reg != nil {
		return printMetrics(out, reg)
	}
	return nil
}

// printMetrics 输出所有非零计数器
func printMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	lines := make([]string, 0)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil || m.GetCounter().GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %v", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	fmt.Fprintln(out, "== metrics")
	for _, line := range lines {
		fmt.Fprintln(out, "  "+line)
	}
	return nil
}

// exitCode maps interrupted runs to the shell convention.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
