package config

import (
	"os"
	"path/filepath"

	xconf "github.com/wooyang2018/govchain/common/config"
	"github.com/wooyang2018/govchain/common/utils"
	"github.com/wooyang2018/govchain/logger"
)

var dir = utils.GetCurFileDir()

func GetMockEnvConf(paths ...string) (*xconf.EnvConf, error) {
	path := "conf/env.yaml"
	if len(paths) > 0 {
		path = paths[0]
	}

	econf, err := xconf.LoadEnvConf(filepath.Join(dir, path))
	if err != nil {
		return nil, err
	}
	econf.RootPath = dir
	return econf, nil
}

func GetMockGovConf() (*xconf.GovConf, error) {
	return xconf.LoadGovConf(GetGovConfFilePath())
}

func GetLogConfFilePath() string {
	return filepath.Join(dir, "conf/log.yaml")
}

func GetGovConfFilePath() string {
	return filepath.Join(dir, "conf/gov.yaml")
}

// GetLogDir is where test processes write their log files.
func GetLogDir() string {
	return filepath.Join(os.TempDir(), "govchain-test-logs")
}

// InitFakeLogger initializes the process logger once for tests.
func InitFakeLogger() {
	logger.InitMLog(GetLogConfFilePath(), GetLogDir())
}
