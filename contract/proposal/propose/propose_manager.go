package propose

import (
	"fmt"

	contractBase "github.com/wooyang2018/govchain/contract/base"
)

// Querier runs a read only call against the chain.
type Querier interface {
	Query(contract, method string, args map[string][]byte) (*contractBase.Response, error)
}

// QueryFunc adapts a function to Querier.
type QueryFunc func(contract, method string, args map[string][]byte) (*contractBase.Response, error)

func (f QueryFunc) Query(contract, method string, args map[string][]byte) (*contractBase.Response, error) {
	return f(contract, method, args)
}

// ProposalView is everything known about one proposal.
type ProposalView struct {
	Id          uint64               `json:"id"`
	Hash        string               `json:"hash"`
	Description *ProposalDescription `json:"description"`
	State       *ProposalState       `json:"state"`
	Minimum     *MinimumView         `json:"minimum,omitempty"`
}

// Manager reads proposals of a deployed governor, providing the read
// interface used by tooling.
type Manager struct {
	governor string
	q        Querier
}

func NewProposeManager(governor string, q Querier) (*Manager, error) {
	if governor == "" || q == nil {
		return nil, fmt.Errorf("propose manager param error")
	}
	return &Manager{governor: governor, q: q}, nil
}

func (mgr *Manager) query(method string, args map[string][]byte, out interface{}) error {
	resp, err := mgr.q.Query(mgr.governor, method, args)
	if err != nil {
		return fmt.Errorf("query %s failed. err:%v", method, err)
	}
	return resp.Decode(out)
}

// GetProposalByID returns nil when the proposal does not exist.
func (mgr *Manager) GetProposalByID(id uint64) (*ProposalView, error) {
	args := contractBase.NewArgs().Uint("proposalId", id)
	view := &ProposalView{Id: id}
	if err := mgr.query("state", args, &view.State); err != nil {
		return nil, err
	}
	if view.State == nil {
		return nil, nil
	}
	var h *string
	if err := mgr.query("hashById", args, &h); err != nil {
		return nil, err
	}
	if h != nil {
		view.Hash = *h
	}
	if err := mgr.query("descriptionById", args, &view.Description); err != nil {
		return nil, err
	}
	if view.State.Status == StatusActive {
		view.Minimum = new(MinimumView)
		if err := mgr.query("minimumToFinalize", args, view.Minimum); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// ListProposals returns every proposal in id order.
func (mgr *Manager) ListProposals() ([]*ProposalView, error) {
	var next uint64
	if err := mgr.query("nextProposalId", nil, &next); err != nil {
		return nil, err
	}
	views := make([]*ProposalView, 0, next)
	for id := uint64(0); id < next; id++ {
		view, err := mgr.GetProposalByID(id)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, view)
		}
	}
	return views, nil
}
