package scenario

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mock "github.com/wooyang2018/govchain/mock/config"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	mock.InitFakeLogger()
	goleak.VerifyTestMain(m)
}

func newRunner(t *testing.T) *Runner {
	envCfg, err := mock.GetMockEnvConf()
	require.NoError(t, err)
	govCfg, err := mock.GetMockGovConf()
	require.NoError(t, err)
	r, err := NewRunner(envCfg, govCfg)
	require.NoError(t, err)
	return r
}

func TestParseAdvance(t *testing.T) {
	cases := map[string]int64{
		"":    0,
		"3d":  3 * 86_400_000,
		"1h":  3_600_000,
		"90s": 90_000,
	}
	for in, want := range cases {
		got, err := ParseAdvance(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"-1d", "xd", "soon", "-2h"} {
		_, err := ParseAdvance(in)
		assert.Error(t, err, in)
	}
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: tiny
mint: {alice: "5"}
steps:
  - {advance: 2d, from: alice, contract: abax, method: transfer, args: {to: bob, amount: 5}}
  - {query: true, contract: abax, method: balanceOf, args: {owner: bob}, expect: "5"}
`))
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)
	require.Len(t, s.Steps, 2)
	assert.True(t, s.Steps[1].Query)

	args, err := EncodeArgs(s.Steps[0].Args)
	require.NoError(t, err)
	assert.Equal(t, "bob", string(args["to"]))
	assert.Equal(t, "5", string(args["amount"]))

	_, err = ParseScenario([]byte("steps: [{advance: tomorrow}]"))
	assert.Error(t, err)
}

func TestEncodeArgsJSON(t *testing.T) {
	args, err := EncodeArgs(map[string]interface{}{
		"proposal": map[string]interface{}{"descriptionHash": "ab", "transactions": []interface{}{}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"descriptionHash":"ab","transactions":[]}`, string(args["proposal"]))
}

func TestSameJSON(t *testing.T) {
	same, err := sameJSON([]byte(`"250"`), "250")
	require.NoError(t, err)
	assert.True(t, same)
	same, err = sameJSON([]byte(`1`), 1)
	require.NoError(t, err)
	assert.True(t, same)
	same, err = sameJSON([]byte(`"Defeated"`), "Succeeded")
	require.NoError(t, err)
	assert.False(t, same)
}

func TestRunTreasuryPayout(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "treasury_payout.yaml"))
	require.NoError(t, err)

	r := newRunner(t)
	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, len(s.Steps), res.Steps)
	assert.Nil(t, res.Chain)

	report := strings.Join(res.Lines, "\n")
	assert.Contains(t, report, "proposal 0 Executed")
	for _, line := range res.Lines {
		if strings.HasPrefix(line, "carol ") {
			assert.Contains(t, line, "asset 250 ")
		}
		if strings.HasPrefix(line, "treasury ") {
			assert.Contains(t, line, "asset 4,750 ")
		}
	}
}

func TestRunReportsFailedStep(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong-expectation
mint: {alice: "5"}
steps:
  - {from: alice, contract: abax, method: transfer, args: {to: bob, amount: "5"}}
  - {query: true, contract: abax, method: balanceOf, args: {owner: bob}, expect: "6"}
`))
	require.NoError(t, err)

	_, err = newRunner(t).Run(context.Background(), s)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)

	s.Steps[1].Expect = nil
	s.Steps[1].ExpectError = "InsufficientBalance"
	_, err = newRunner(t).Run(context.Background(), s)
	require.ErrorAs(t, err, &stepErr)
	assert.Contains(t, err.Error(), "got success")
}

func TestRunAll(t *testing.T) {
	payout, err := LoadScenario(filepath.Join("testdata", "treasury_payout.yaml"))
	require.NoError(t, err)
	tiny, err := ParseScenario([]byte(`
name: tiny
mint: {alice: "5"}
report: [alice]
steps:
  - {from: alice, contract: abax, method: transfer, args: {to: bob, amount: "2"}}
`))
	require.NoError(t, err)

	r := newRunner(t)
	r.KeepChain = true
	results, err := r.RunAll(context.Background(), []*Scenario{payout, tiny})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "treasury-payout", results[0].Name)
	assert.Equal(t, "tiny", results[1].Name)
	assert.Contains(t, results[1].Lines[0], "asset 3 ")
	for _, res := range results {
		require.NotNil(t, res.Chain)
	}
	assert.Equal(t, []string{"govchain-tiny", "govchain-treasury-payout"}, r.Chains.GetChains())

	// a second run of a kept scenario collides on the chain name
	_, err = r.Run(context.Background(), tiny)
	assert.ErrorContains(t, err, "already exists")

	r.Close()
	assert.Empty(t, r.Chains.GetChains())
}

func TestRunCancelled(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "treasury_payout.yaml"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newRunner(t).Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}
