package govern

import (
	"fmt"

	xctx "github.com/wooyang2018/govchain/common/context"
	"github.com/wooyang2018/govchain/common/timer"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/logger"
)

type GovCtx struct {
	// 基础上下文
	xctx.BaseCtx
	BcName       string
	MetricSwitch bool
}

func NewGovCtx(bcName string, metricSwitch bool) (*GovCtx, error) {
	if bcName == "" {
		return nil, fmt.Errorf("new gov ctx failed because param error")
	}

	log, err := logger.NewLogger("", utils.GovernTokenKernelContract)
	if err != nil {
		return nil, fmt.Errorf("new gov ctx failed because new logger error. err:%v", err)
	}

	ctx := new(GovCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.BcName = bcName
	ctx.MetricSwitch = metricSwitch

	return ctx, nil
}
