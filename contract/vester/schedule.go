package vester

import (
	"encoding/json"
	"fmt"

	contractBase "github.com/wooyang2018/govchain/contract/base"
)

const (
	ScheduleConstant = "constant"
	ScheduleExternal = "external"

	// DurationsMethod is asked by External schedules for the current durations
	DurationsMethod = "getWaitingAndVestingDurations"
)

// Schedule decides how long a vest waits before the cliff and how long the
// linear release lasts afterwards. Implemented by Constant and External only.
type Schedule interface {
	Durations(ctx contractBase.KContext) (waitingTime, vestingTime int64)
	kind() string
}

// Constant is a cliff of WaitingTime followed by a linear release over VestingTime.
type Constant struct {
	WaitingTime int64 `json:"waitingTime"`
	VestingTime int64 `json:"vestingTime"`
}

func (c *Constant) Durations(contractBase.KContext) (int64, int64) {
	return c.WaitingTime, c.VestingTime
}

func (c *Constant) kind() string {
	return ScheduleConstant
}

// External reads the durations from Account, using the fallback pair when
// the account cannot answer.
type External struct {
	Account             string `json:"account"`
	FallbackWaitingTime int64  `json:"fallbackWaitingTime"`
	FallbackVestingTime int64  `json:"fallbackVestingTime"`
}

// Durations answers are a JSON object of the two durations.
type Durations struct {
	WaitingTime int64 `json:"waitingTime"`
	VestingTime int64 `json:"vestingTime"`
}

func (e *External) Durations(ctx contractBase.KContext) (int64, int64) {
	resp, err := ctx.Call(e.Account, DurationsMethod, nil, nil)
	if err != nil {
		return e.FallbackWaitingTime, e.FallbackVestingTime
	}
	var d Durations
	if err := resp.Decode(&d); err != nil || d.WaitingTime < 0 || d.VestingTime < 0 {
		return e.FallbackWaitingTime, e.FallbackVestingTime
	}
	return d.WaitingTime, d.VestingTime
}

func (e *External) kind() string {
	return ScheduleExternal
}

// ScheduleSpec carries a Schedule through JSON as {"type": ..., fields...}.
type ScheduleSpec struct {
	Schedule
}

func NewConstant(waitingTime, vestingTime int64) ScheduleSpec {
	return ScheduleSpec{&Constant{WaitingTime: waitingTime, VestingTime: vestingTime}}
}

func NewExternal(account string, fallbackWaitingTime, fallbackVestingTime int64) ScheduleSpec {
	return ScheduleSpec{&External{
		Account:             account,
		FallbackWaitingTime: fallbackWaitingTime,
		FallbackVestingTime: fallbackVestingTime,
	}}
}

func (s ScheduleSpec) MarshalJSON() ([]byte, error) {
	if s.Schedule == nil {
		return nil, fmt.Errorf("empty vesting schedule")
	}
	body, err := json.Marshal(s.Schedule)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(s.kind())
	return json.Marshal(fields)
}

func (s *ScheduleSpec) UnmarshalJSON(buf []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(buf, &head); err != nil {
		return err
	}
	switch head.Type {
	case ScheduleConstant:
		c := new(Constant)
		if err := json.Unmarshal(buf, c); err != nil {
			return err
		}
		if c.WaitingTime < 0 || c.VestingTime < 0 {
			return fmt.Errorf("negative duration in constant schedule")
		}
		s.Schedule = c
	case ScheduleExternal:
		e := new(External)
		if err := json.Unmarshal(buf, e); err != nil {
			return err
		}
		if e.Account == "" || e.FallbackWaitingTime < 0 || e.FallbackVestingTime < 0 {
			return fmt.Errorf("bad external schedule")
		}
		s.Schedule = e
	default:
		return fmt.Errorf("unknown vesting schedule type %q", head.Type)
	}
	return nil
}
