package config

import (
	"fmt"
)

const (
	OneDayMs = int64(24 * 60 * 60 * 1000)
)

// VotingRulesConf mirrors the governor voting rules. Periods are milliseconds.
type VotingRulesConf struct {
	MinimumStakePartE3    uint16 `yaml:"minimumStakePartE3"`
	ProposerDepositPartE3 uint16 `yaml:"proposerDepositPartE3"`
	InitialPeriod         int64  `yaml:"initialPeriod"`
	FlatPeriod            int64  `yaml:"flatPeriod"`
	FinalPeriod           int64  `yaml:"finalPeriod"`
}

// GovConf holds the parameters used to bootstrap a governance deployment.
type GovConf struct {
	ChainName     string          `yaml:"chainName"`
	TokenName     string          `yaml:"tokenName"`
	TokenSymbol   string          `yaml:"tokenSymbol"`
	TokenDecimals uint8           `yaml:"tokenDecimals"`
	UnstakePeriod int64           `yaml:"unstakePeriod"`
	VotingRules   VotingRulesConf `yaml:"votingRules"`
	// account which receives EXECUTOR on the governor and treasury
	Foundation string `yaml:"foundation"`
	// account which receives PARAMETERS_ADMIN, empty means nobody
	ParametersAdmin string `yaml:"parametersAdmin"`
	// native balances minted at genesis, decimal strings
	Genesis map[string]string `yaml:"genesis"`
}

func LoadGovConf(cfgFile string) (*GovConf, error) {
	cfg := GetDefGovConf()
	if err := unmarshalFile(cfgFile, cfg); err != nil {
		return nil, fmt.Errorf("load gov config failed.err:%s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetDefGovConf() *GovConf {
	return &GovConf{
		ChainName:     "govchain",
		TokenName:     "Abax Governance Votes",
		TokenSymbol:   "vABAX",
		TokenDecimals: 12,
		UnstakePeriod: 180 * OneDayMs,
		VotingRules: VotingRulesConf{
			MinimumStakePartE3:    10,
			ProposerDepositPartE3: 100,
			InitialPeriod:         3 * OneDayMs,
			FlatPeriod:            10 * OneDayMs,
			FinalPeriod:           4 * OneDayMs,
		},
		Foundation: "foundation",
		Genesis:    map[string]string{},
	}
}

// Validate checks that the whole voting window fits into the unstake period.
func (t *GovConf) Validate() error {
	r := t.VotingRules
	if r.InitialPeriod < 0 || r.FlatPeriod < 0 || r.FinalPeriod < 0 || t.UnstakePeriod < 0 {
		return fmt.Errorf("gov config: negative period")
	}
	if r.InitialPeriod+r.FlatPeriod+r.FinalPeriod > t.UnstakePeriod {
		return fmt.Errorf("gov config: voting period longer than unstake period")
	}
	if r.MinimumStakePartE3 > 1000 || r.ProposerDepositPartE3 > 1000 {
		return fmt.Errorf("gov config: part e3 above 1000")
	}
	return nil
}
