package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	xconf "github.com/wooyang2018/govchain/common/config"
	"github.com/wooyang2018/govchain/common/metrics"
	"github.com/wooyang2018/govchain/example/scenario"
	"github.com/wooyang2018/govchain/logger"
)

// BaseCmd 所有子命令的公共部分
type BaseCmd struct {
	Cmd *cobra.Command
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "govsim",
		Short:         "Replay governance scenarios on a local chain.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(GetRunCmd().Cmd)
	root.AddCommand(GetExportCmd().Cmd)
	root.AddCommand(GetInspectCmd().Cmd)
	return root
}

// loadConf 加载环境配置和治理配置，未设置GOV_ROOT_PATH时以配置目录的上级目录为根目录
func loadConf(envCfgPath string) (*xconf.EnvConf, *xconf.GovConf, error) {
	envConf, err := xconf.LoadEnvConf(envCfgPath)
	if err != nil {
		return nil, nil, err
	}
	if os.Getenv("GOV_ROOT_PATH") == "" {
		abs, err := filepath.Abs(envCfgPath)
		if err != nil {
			return nil, nil, err
		}
		envConf.RootPath = filepath.Dir(filepath.Dir(abs))
	}

	govConf, err := xconf.LoadGovConf(envConf.GenConfFilePath(envConf.GovConf))
	if err != nil {
		return nil, nil, err
	}
	return envConf, govConf, nil
}

// newRunner 初始化日志和指标后创建场景执行器
func newRunner(envCfgPath string) (*scenario.Runner, *prometheus.Registry, error) {
	envConf, govConf, err := loadConf(envCfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger.InitMLog(envConf.GenConfFilePath(envConf.LogConf), envConf.GenDirAbsPath(envConf.LogDir))

	var reg *prometheus.Registry
	if envConf.MetricSwitch {
		reg = prometheus.NewRegistry()
		metrics.RegisterMetrics(reg)
	}
	runner, err := scenario.NewRunner(envConf, govConf)
	if err != nil {
		return nil, nil, err
	}
	return runner, reg, nil
}

func loadScenarios(paths []string) ([]*scenario.Scenario, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario file given")
	}
	out := make([]*scenario.Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := scenario.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
