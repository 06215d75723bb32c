package scenario

import (
	"fmt"

	xconf "github.com/wooyang2018/govchain/common/config"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/propose"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/contract/psp22"
	"github.com/wooyang2018/govchain/contract/treasury"
	"github.com/wooyang2018/govchain/contract/vester"
	"github.com/wooyang2018/govchain/engine"
)

// 默认部署的合约名
const (
	AssetContract    = "abax"
	VesterContract   = "vester"
	GovernorContract = utils.DefaultGovernorName
	TreasuryContract = "treasury"
)

// DeployStack deploys the asset, the vester, the governor and the treasury
// at ts. The foundation administers the asset and executes governor
// proposals and treasury orders; the governor owns the treasury.
func DeployStack(chain *engine.Chain, govCfg *xconf.GovConf, ts int64) error {
	bcName := chain.Context().BCName
	metric := false
	if envCfg := chain.Context().EnvCfg; envCfg != nil {
		metric = envCfg.MetricSwitch
	}
	foundation := govCfg.Foundation

	vctx, err := vester.NewVesterCtx(bcName, metric)
	if err != nil {
		return err
	}
	pctx, err := propose.NewProposeCtx(bcName, metric)
	if err != nil {
		return err
	}
	gov, err := propose.NewGovernor(pctx)
	if err != nil {
		return err
	}
	tctx, err := treasury.NewTreasuryCtx(bcName, metric)
	if err != nil {
		return err
	}

	rules := &propose.VotingRules{
		MinimumStakePartE3:    govCfg.VotingRules.MinimumStakePartE3,
		ProposerDepositPartE3: govCfg.VotingRules.ProposerDepositPartE3,
		InitialPeriod:         govCfg.VotingRules.InitialPeriod,
		FlatPeriod:            govCfg.VotingRules.FlatPeriod,
		FinalPeriod:           govCfg.VotingRules.FinalPeriod,
	}
	steps := []struct {
		name     string
		contract contractBase.Contract
		args     contractBase.Args
	}{
		{AssetContract, psp22.NewToken(), contractBase.NewArgs().Str("name", "Abax").Str("symbol", "ABAX").
			Uint("decimals", uint64(govCfg.TokenDecimals)).Str("admin", foundation)},
		{VesterContract, vester.NewVester(vctx), nil},
		{GovernorContract, gov, contractBase.NewArgs().Str("asset", AssetContract).Str("vester", VesterContract).
			Int("unstakePeriod", govCfg.UnstakePeriod).Str("name", govCfg.TokenName).
			Str("symbol", govCfg.TokenSymbol).JSON("rules", rules).
			Str("executor", foundation).Str("parametersAdmin", govCfg.ParametersAdmin)},
		{TreasuryContract, treasury.NewTreasury(tctx), contractBase.NewArgs().Str("governor", GovernorContract).
			Str("foundation", foundation).Str("vester", VesterContract)},
	}
	for _, s := range steps {
		if _, err := chain.Deploy(s.name, s.contract, foundation, s.args, ts); err != nil {
			return fmt.Errorf("deploy %s failed.err:%v", s.name, err)
		}
	}
	return nil
}
