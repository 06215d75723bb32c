package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEnvConf(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.yaml", "rootPath: /tmp/gov\nstorageDriver: leveldb\nmetricSwitch: true\n")

	cfg, err := LoadEnvConf(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageDriver != "leveldb" || !cfg.MetricSwitch {
		t.Fatalf("unexpected env conf: %+v", cfg)
	}
	if cfg.GovConf != "gov.yaml" {
		t.Fatal("default value lost")
	}
	if got := cfg.GenDataAbsPath("x"); got != filepath.Join("/tmp/gov", "data", "x") {
		t.Fatalf("bad data path %s", got)
	}
}

func TestLoadEnvConfMissing(t *testing.T) {
	if _, err := LoadEnvConf(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expect error for missing file")
	}
}

func TestLoadGovConf(t *testing.T) {
	dir := t.TempDir()
	body := `
chainName: test
unstakePeriod: 1000
votingRules:
  minimumStakePartE3: 20
  proposerDepositPartE3: 50
  initialPeriod: 100
  flatPeriod: 200
  finalPeriod: 300
genesis:
  alice: "1000"
`
	cfg, err := LoadGovConf(writeFile(t, dir, "gov.yaml", body))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VotingRules.MinimumStakePartE3 != 20 || cfg.VotingRules.FinalPeriod != 300 {
		t.Fatalf("unexpected rules %+v", cfg.VotingRules)
	}
	if cfg.Genesis["alice"] != "1000" {
		t.Fatal("genesis not loaded")
	}
	if cfg.TokenSymbol != "vABAX" {
		t.Fatal("default symbol lost")
	}
}

func TestGovConfValidate(t *testing.T) {
	cfg := GetDefGovConf()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.UnstakePeriod = 16 * OneDayMs
	if err := cfg.Validate(); err == nil {
		t.Fatal("expect voting window error")
	}
}
