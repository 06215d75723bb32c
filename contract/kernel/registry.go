package kernel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wooyang2018/govchain/contract/base"
)

type registryImpl struct {
	mutex   sync.RWMutex
	methods map[string]map[string]base.KernMethod
}

func (r *registryImpl) RegisterKernMethod(contract, method string, handler base.KernMethod) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.methods == nil {
		r.methods = make(map[string]map[string]base.KernMethod)
	}
	contractMap, ok := r.methods[contract]
	if !ok {
		contractMap = make(map[string]base.KernMethod)
		r.methods[contract] = contractMap
	}
	contractMap[method] = handler
}

func (r *registryImpl) UnregisterKernMethod(contract, method string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	contractMap, ok := r.methods[contract]
	if !ok {
		return
	}
	delete(contractMap, method)
	if len(contractMap) == 0 {
		delete(r.methods, contract)
	}
}

func (r *registryImpl) unregister(contract string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.methods, contract)
}

func (r *registryImpl) GetKernMethod(contract, method string) (base.KernMethod, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	contractMap, ok := r.methods[contract]
	if !ok {
		return nil, base.ErrMethodNotFound.WithDetail("contract %s not found", contract)
	}
	m, ok := contractMap[method]
	if !ok {
		return nil, base.ErrMethodNotFound.WithDetail("method %s not exists in contract %s", method, contract)
	}
	return m, nil
}

func (r *registryImpl) Contracts() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]string, 0, len(r.methods))
	for name := range r.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *registryImpl) has(contract string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.methods[contract]
	return ok
}

func (r *registryImpl) String() string {
	return fmt.Sprintf("registry%v", r.Contracts())
}
