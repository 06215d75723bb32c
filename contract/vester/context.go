package vester

import (
	"fmt"

	xctx "github.com/wooyang2018/govchain/common/context"
	"github.com/wooyang2018/govchain/common/timer"
	"github.com/wooyang2018/govchain/logger"
)

const SubModName = "vester"

type VesterCtx struct {
	// 基础上下文
	xctx.BaseCtx
	BcName       string
	MetricSwitch bool
}

func NewVesterCtx(bcName string, metricSwitch bool) (*VesterCtx, error) {
	if bcName == "" {
		return nil, fmt.Errorf("new vester ctx failed because param error")
	}

	log, err := logger.NewLogger("", SubModName)
	if err != nil {
		return nil, fmt.Errorf("new vester ctx failed because new logger error. err:%v", err)
	}

	ctx := new(VesterCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.BcName = bcName
	ctx.MetricSwitch = metricSwitch
	return ctx, nil
}
