package ledger

import (
	"github.com/openpool/betledger/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal tracks lifecycle operations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betledger_operations_total",
			Help: "Total lifecycle operations by operation and result code",
		},
		[]string{"operation", "result"},
	)

	// StakedAmount tracks stake sizes in token units.
	StakedAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betledger_staked_amount",
		Help:    "Stake amounts in token units",
		Buckets: prometheus.ExponentialBuckets(1, 10, 10),
	})

	// PayoutAmount tracks claim payouts in token units.
	PayoutAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betledger_payout_amount",
		Help:    "Claim payouts in token units",
		Buckets: prometheus.ExponentialBuckets(1, 10, 10),
	})
)

func observeOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if code := types.CodeOf(err); code != "" {
			result = string(code)
		}
	}

	OperationsTotal.WithLabelValues(operation, result).Inc()
}
