package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "govchain"

	SubsystemContract = "contract"
	SubsystemGovernor = "governor"
	SubsystemTreasury = "treasury"
	SubsystemVester   = "vester"
	SubsystemEvent    = "event"

	LabelBCName         = "bcname"
	LabelContractName   = "contract_name"
	LabelContractMethod = "contract_method"
	LabelErrorCode      = "code"
	LabelStatus         = "status"
	LabelOutcome        = "outcome"
	LabelEventName      = "event"
)

var DefBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1}

// contract
var (
	ContractInvokeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemContract,
			Name:      "invoke_total",
			Help:      "Total number of contract invocations.",
		},
		[]string{LabelBCName, LabelContractName, LabelContractMethod, LabelErrorCode})
	ContractInvokeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemContract,
			Name:      "invoke_seconds",
			Help:      "Histogram of invoke contract latency.",
			Buckets:   DefBuckets,
		},
		[]string{LabelBCName, LabelContractName, LabelContractMethod})
)

// governance
var (
	ProposalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemGovernor,
			Name:      "proposals_total",
			Help:      "Total number of proposals reaching a status.",
		},
		[]string{LabelBCName, LabelStatus})
	TreasuryOrderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemTreasury,
			Name:      "orders_total",
			Help:      "Total number of treasury orders by outcome.",
		},
		[]string{LabelBCName, LabelOutcome})
	VestReleaseCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemVester,
			Name:      "releases_total",
			Help:      "Total number of non-empty vesting releases.",
		},
		[]string{LabelBCName})
)

// event
var (
	EventPublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemEvent,
			Name:      "published_total",
			Help:      "Total number of contract events published.",
		},
		[]string{LabelEventName})
)

func RegisterMetrics(reg prometheus.Registerer) {
	// contract
	reg.MustRegister(ContractInvokeCounter)
	reg.MustRegister(ContractInvokeHistogram)
	// governance
	reg.MustRegister(ProposalCounter)
	reg.MustRegister(TreasuryOrderCounter)
	reg.MustRegister(VestReleaseCounter)
	// event
	reg.MustRegister(EventPublishCounter)
}
