// 统一管理链运行上下文
package base

import (
	"fmt"

	xconf "github.com/wooyang2018/govchain/common/config"
	xctx "github.com/wooyang2018/govchain/common/context"
	"github.com/wooyang2018/govchain/common/timer"
	"github.com/wooyang2018/govchain/logger"
)

const (
	SubModName = "engine"
)

// 链级别上下文
type ChainCtx struct {
	// 基础上下文
	xctx.BaseCtx
	// 链名
	BCName string
	// 运行环境配置
	EnvCfg *xconf.EnvConf
}

func NewChainCtx(bcName string, envCfg *xconf.EnvConf) (*ChainCtx, error) {
	if bcName == "" {
		return nil, ErrParameter.More("empty chain name")
	}

	log, err := logger.NewLogger("", SubModName)
	if err != nil {
		return nil, fmt.Errorf("new chain ctx failed because new logger error. err:%v", err)
	}

	ctx := new(ChainCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.BCName = bcName
	ctx.EnvCfg = envCfg
	ctx.XLog.SetCommField("bcname", bcName)
	return ctx, nil
}
