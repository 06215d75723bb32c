package engine

import (
	"fmt"
	"math/big"

	xconf "github.com/wooyang2018/govchain/common/config"
	"github.com/wooyang2018/govchain/engine/base"
	"github.com/wooyang2018/govchain/storage"
)

// OpenStorage opens the state database configured by envCfg for chain bcName.
func OpenStorage(envCfg *xconf.EnvConf, bcName string) (storage.Database, error) {
	if envCfg == nil {
		return nil, base.ErrParameter.More("nil env config")
	}
	path := envCfg.GenDataAbsPath(envCfg.ChainDir + "/" + bcName)
	db, err := storage.CreateDB(envCfg.StorageDriver, path, nil)
	if err != nil {
		return nil, base.ErrStorageDriver.More("%v", err)
	}
	return db, nil
}

// ParseGenesis converts the decimal genesis balances of a GovConf.
func ParseGenesis(govCfg *xconf.GovConf) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(govCfg.Genesis))
	for account, s := range govCfg.Genesis {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 {
			return nil, base.ErrGenesisAmount.More("%s=%q", account, s)
		}
		out[account] = v
	}
	return out, nil
}

// CreateChain opens storage and builds a chain from the env and gov configs.
func CreateChain(envCfg *xconf.EnvConf, govCfg *xconf.GovConf, genesisTime int64) (*Chain, error) {
	if envCfg == nil || govCfg == nil {
		return nil, base.ErrParameter.More("create chain failed because some param unset")
	}
	genesis, err := ParseGenesis(govCfg)
	if err != nil {
		return nil, err
	}
	ctx, err := base.NewChainCtx(govCfg.ChainName, envCfg)
	if err != nil {
		return nil, err
	}
	db, err := OpenStorage(envCfg, govCfg.ChainName)
	if err != nil {
		return nil, err
	}
	chain, err := NewChain(ctx, &ChainConfig{
		BCName:       govCfg.ChainName,
		DB:           db,
		Genesis:      genesis,
		GenesisTime:  genesisTime,
		MetricSwitch: envCfg.MetricSwitch,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create chain %s failed.err:%v", govCfg.ChainName, err)
	}
	return chain, nil
}
