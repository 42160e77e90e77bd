package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	FramesSent       prometheus.Counter     // 下行帧计数
	BytesReceived    prometheus.Counter     // 串口上行字节数
	TransactionTotal *prometheus.CounterVec // labels: op, result=ok|timeout|malformed|checksum|overflow|other
	DecodeErrorTotal *prometheus.CounterVec // labels: kind
	TargetsObserved  prometheus.Counter     // 解码出的目标总数
	ClippingTotal    prometheus.Counter     // 过载帧计数
	SensorOnline     prometheus.Gauge       // 传感器可达状态 0/1
	PollCycleTotal   *prometheus.CounterVec // labels: result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_frames_sent_total",
			Help: "Total command frames written to the serial link.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_bytes_received_total",
			Help: "Total bytes received from the serial link.",
		}),
		TransactionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_transaction_total",
			Help: "Radar command transactions by operation and result.",
		}, []string{"op", "result"}),
		DecodeErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_decode_error_total",
			Help: "Target frame decode failures by kind.",
		}, []string{"kind"}),
		TargetsObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_targets_observed_total",
			Help: "Total targets decoded from target list responses.",
		}),
		ClippingTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radar_clipping_total",
			Help: "Target list responses carrying the clipping sentinel.",
		}),
		SensorOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radar_sensor_online",
			Help: "Whether the last exchange with the sensor succeeded.",
		}),
		PollCycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_poll_cycle_total",
			Help: "Background polling cycles by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.FramesSent, m.BytesReceived, m.TransactionTotal, m.DecodeErrorTotal,
		m.TargetsObserved, m.ClippingTotal, m.SensorOnline, m.PollCycleTotal)
	return m
}
