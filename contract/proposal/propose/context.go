package propose

import (
	"fmt"

	xctx "github.com/wooyang2018/govchain/common/context"
	"github.com/wooyang2018/govchain/common/timer"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/logger"
)

type ProposeCtx struct {
	// 基础上下文
	xctx.BaseCtx
	BcName       string
	MetricSwitch bool
}

func NewProposeCtx(bcName string, metricSwitch bool) (*ProposeCtx, error) {
	if bcName == "" {
		return nil, fmt.Errorf("new propose ctx failed because param error")
	}

	log, err := logger.NewLogger("", utils.ProposalKernelContract)
	if err != nil {
		return nil, fmt.Errorf("new propose ctx failed because new logger error. err:%v", err)
	}

	ctx := new(ProposeCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.BcName = bcName
	ctx.MetricSwitch = metricSwitch

	return ctx, nil
}
