package treasury

import (
	"fmt"

	xctx "github.com/wooyang2018/govchain/common/context"
	"github.com/wooyang2018/govchain/common/timer"
	"github.com/wooyang2018/govchain/logger"
)

const SubModName = "treasury"

type TreasuryCtx struct {
	// 基础上下文
	xctx.BaseCtx
	BcName       string
	MetricSwitch bool
}

func NewTreasuryCtx(bcName string, metricSwitch bool) (*TreasuryCtx, error) {
	if bcName == "" {
		return nil, fmt.Errorf("new treasury ctx failed because param error")
	}

	log, err := logger.NewLogger("", SubModName)
	if err != nil {
		return nil, fmt.Errorf("new treasury ctx failed because new logger error. err:%v", err)
	}

	ctx := new(TreasuryCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.BcName = bcName
	ctx.MetricSwitch = metricSwitch
	return ctx, nil
}
