package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 设备与签名流程的业务指标，进程启动即注册
var (
	DeviceExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_device_exchanges_total",
		Help: "Instructions sent to the signing device, by instruction and result.",
	}, []string{"ins", "result"})

	FlowOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_flow_outcomes_total",
		Help: "Finished signing flows by transaction kind and terminal state.",
	}, []string{"kind", "state"})

	SubmittedAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_submitted_bones_total",
		Help: "Sum of amounts (bones) in submitted transactions.",
	}, []string{"kind", "network"})

	FlowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_flow_duration_seconds",
		Help:    "Duration of signing flows including the wait for on-device approval.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind"})
)

// Exchange result labels.
const (
	ResultOK           = "ok"
	ResultDenied       = "denied"
	ResultAppClosed    = "app_not_running"
	ResultTransportErr = "transport_error"
)
