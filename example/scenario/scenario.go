// Package scenario replays timestamped governance scenarios against a fresh
// chain holding the whole contract stack.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"gopkg.in/yaml.v3"
)

// Scenario is the content of one scenario file.
type Scenario struct {
	Name string `yaml:"name"`
	// asset minted to accounts before the first step
	Mint map[string]string `yaml:"mint"`
	// accounts listed in the final report
	Report []string `yaml:"report"`
	Steps  []*Step  `yaml:"steps"`
}

// Step is one invocation or query. Args are scalars or structured values;
// structured values are passed as JSON.
type Step struct {
	// Advance moves the clock before the step, a Go duration with an
	// optional day suffix such as "3d" or "36h"
	Advance  string                 `yaml:"advance"`
	From     string                 `yaml:"from"`
	Contract string                 `yaml:"contract"`
	Method   string                 `yaml:"method"`
	Args     map[string]interface{} `yaml:"args"`
	Value    string                 `yaml:"value"`
	Query    bool                   `yaml:"query"`
	// ExpectError is the error name the step must fail with
	ExpectError string `yaml:"expect_error"`
	// Expect is compared with the JSON body of the response
	Expect interface{} `yaml:"expect"`
}

func LoadScenario(path string) (*Scenario, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario failed.path:%s err:%v", path, err)
	}
	return ParseScenario(buf)
}

func ParseScenario(buf []byte) (*Scenario, error) {
	s := new(Scenario)
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, fmt.Errorf("parse scenario failed.err:%v", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario without name")
	}
	for i, step := range s.Steps {
		if step.Contract == "" || step.Method == "" {
			return nil, fmt.Errorf("scenario %s step %d: contract and method required", s.Name, i)
		}
		if _, err := ParseAdvance(step.Advance); err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %v", s.Name, i, err)
		}
	}
	return s, nil
}

// ParseAdvance converts an advance string to milliseconds.
func ParseAdvance(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(s, "d") {
		var days int64
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil || days < 0 {
			return 0, fmt.Errorf("bad advance %q", s)
		}
		return days * 24 * int64(time.Hour/time.Millisecond), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad advance %q", s)
	}
	return d.Milliseconds(), nil
}

// EncodeArgs turns step args into kernel call args.
func EncodeArgs(in map[string]interface{}) (contractBase.Args, error) {
	args := contractBase.NewArgs()
	for k, v := range in {
		switch val := v.(type) {
		case string:
			args.Str(k, val)
		case map[string]interface{}, []interface{}:
			buf, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("arg %s: %v", k, err)
			}
			args[k] = buf
		default:
			args.Str(k, fmt.Sprint(val))
		}
	}
	return args, nil
}

// sameJSON compares a response body with an expected YAML value after both
// went through JSON. Amounts are quoted decimals in responses.
func sameJSON(body []byte, expect interface{}) (bool, error) {
	want, err := json.Marshal(expect)
	if err != nil {
		return false, err
	}
	var got, exp interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		return false, err
	}
	if err := json.Unmarshal(want, &exp); err != nil {
		return false, err
	}
	return fmt.Sprint(got) == fmt.Sprint(exp), nil
}
