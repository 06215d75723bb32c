package engine

import (
	"errors"
	"sort"
	"sync"

	"github.com/wooyang2018/govchain/logger"
)

// ChainManagerImpl 用于管理多条独立的链实例
type ChainManagerImpl struct {
	chains sync.Map
	log    logger.Logger
}

func NewChainManagerImpl(log logger.Logger) *ChainManagerImpl {
	return &ChainManagerImpl{
		log: log,
	}
}

func (m *ChainManagerImpl) Get(chainName string) (*Chain, error) {
	c, ok := m.chains.Load(chainName)
	if !ok {
		return nil, errors.New("target chainName doesn't exist")
	}
	chainPtr, ok := c.(*Chain)
	if !ok {
		return nil, errors.New("transfer to Chain pointer error")
	}
	return chainPtr, nil
}

// Put stores chain under chainName. It fails if the name is taken.
func (m *ChainManagerImpl) Put(chainName string, chain *Chain) error {
	if _, loaded := m.chains.LoadOrStore(chainName, chain); loaded {
		return errors.New("chainName already exists")
	}
	return nil
}

func (m *ChainManagerImpl) Stop(chainName string) error {
	c, err := m.Get(chainName)
	if err != nil {
		return err
	}
	m.chains.Delete(chainName)
	c.Close()
	return nil
}

func (m *ChainManagerImpl) GetChains() []string {
	var chains []string
	m.chains.Range(func(key, value interface{}) bool {
		cname, ok := key.(string)
		if !ok {
			return false
		}
		chains = append(chains, cname)
		return true
	})
	sort.Strings(chains)
	return chains
}

// StopChains closes every managed chain.
func (m *ChainManagerImpl) StopChains() {
	for _, name := range m.GetChains() {
		if err := m.Stop(name); err != nil {
			m.log.Warn("stop chain failed", "chain", name, "err", err)
			continue
		}
		m.log.Debug("stop chain " + name)
	}
}
