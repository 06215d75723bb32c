package config

import (
	"strconv"
	"sync"
	"testing"

	"github.com/wooyang2018/govchain/logger"
)

func TestGetMockEnvConf(t *testing.T) {
	econf, err := GetMockEnvConf()
	if err != nil {
		t.Fatal(err)
	}
	if econf.StorageDriver != "memory" || econf.GovConf != "gov.yaml" {
		t.Fatalf("unexpected env conf %+v", econf)
	}
	gconf, err := GetMockGovConf()
	if err != nil {
		t.Fatal(err)
	}
	if gconf.VotingRules.ProposerDepositPartE3 != 100 {
		t.Fatalf("unexpected gov conf %+v", gconf.VotingRules)
	}
}

func TestInfo(t *testing.T) {
	InitFakeLogger()

	wg := &sync.WaitGroup{}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			log, err := logger.NewLogger("", "test"+strconv.Itoa(num))
			if err != nil {
				t.Errorf("new logger fail.err:%v", err)
				return
			}
			log.SetInfoField("test key", num)
			log.Info("test info", "a", true, "b", 1, "num", num)
			log.Debug("test debug", "a", 1, "b", 2, "c", 3, "num", num)
			log.Warn("test warn", 1, 2)
		}(i)
	}
	wg.Wait()
	logger.Sync()
}
