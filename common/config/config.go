package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/wooyang2018/govchain/common/utils"
)

type EnvConf struct {
	// Program running root directory
	RootPath string `yaml:"rootPath,omitempty"`
	// config file directory
	ConfDir string `yaml:"confDir,omitempty"`
	// data file directory
	DataDir string `yaml:"dataDir,omitempty"`
	// log file directory
	LogDir string `yaml:"logDir,omitempty"`
	// chain state directory under DataDir
	ChainDir string `yaml:"chainDir,omitempty"`
	// log config file name
	LogConf string `yaml:"logConf,omitempty"`
	// governance config file name
	GovConf string `yaml:"govConf,omitempty"`
	// state storage driver: memory, leveldb
	StorageDriver string `yaml:"storageDriver,omitempty"`
	// metric switch
	MetricSwitch bool `yaml:"metricSwitch,omitempty"`
}

func LoadEnvConf(cfgFile ...string) (*EnvConf, error) {
	if cfgFile == nil {
		dir := utils.GetCurRootDir()
		cfgFile = []string{filepath.Join(dir, "conf/env.yaml")}
	}
	cfg := GetDefEnvConf()
	err := cfg.loadConf(cfgFile[0])
	if err != nil {
		return nil, fmt.Errorf("load env config failed.err:%s", err)
	}

	// 修改根目录。优先级：1:GOV_ROOT_PATH 2:配置文件设置 3:当前bin文件上级目录
	rtPath := os.Getenv("GOV_ROOT_PATH")
	if rtPath != "" && utils.FileIsExist(rtPath) {
		cfg.RootPath = rtPath
	}

	return cfg, nil
}

func GetDefEnvConf() *EnvConf {
	return &EnvConf{
		// 默认设置为当前执行目录
		RootPath:      utils.GetCurRootDir(),
		ConfDir:       "conf",
		DataDir:       "data",
		LogDir:        "logs",
		ChainDir:      "govchain",
		LogConf:       "log.yaml",
		GovConf:       "gov.yaml",
		StorageDriver: "memory",
		MetricSwitch:  false,
	}
}

func (t *EnvConf) GenDirAbsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(t.RootPath, dir)
}

func (t *EnvConf) GenDataAbsPath(dir string) string {
	return filepath.Join(t.GenDirAbsPath(t.DataDir), dir)
}

func (t *EnvConf) GenConfFilePath(fName string) string {
	return filepath.Join(t.GenDirAbsPath(t.ConfDir), fName)
}

func (t *EnvConf) loadConf(cfgFile string) error {
	return unmarshalFile(cfgFile, t)
}

func unmarshalFile(cfgFile string, out interface{}) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return fmt.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	err := viperObj.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read config failed.path:%s,err:%v", cfgFile, err)
	}

	if err = viperObj.Unmarshal(out, func(config *mapstructure.DecoderConfig) {
		config.TagName = "yaml"
	}); err != nil {
		return fmt.Errorf("unmatshal config failed.path:%s,err:%v", cfgFile, err)
	}

	return nil
}
