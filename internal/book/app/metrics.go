package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Metrics 是图书服务的业务指标。nil 接收者上的方法都是 no-op，测试可以不传。
type Metrics struct {
	ops     *prometheus.CounterVec
	applied *prometheus.CounterVec
	members *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "book",
			Name:      "operations_total",
			Help:      "Book service operations by op and result.",
		}, []string{"op", "result"}),
		applied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "patch",
			Name:      "fields_applied_total",
			Help:      "Fields recorded as applied by the patch engine.",
		}, []string{"entity", "field"}),
		members: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "patch",
			Name:      "collection_members_total",
			Help:      "Related members added or removed by collection reconciliation.",
		}, []string{"field", "change"}),
	}
}

func (m *Metrics) observeOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ops.WithLabelValues(op, result).Inc()
}

func (m *Metrics) observeApplied(entity string, applied sets.Set[string]) {
	if m == nil {
		return
	}
	for name := range applied {
		m.applied.WithLabelValues(entity, name).Inc()
	}
}

func (m *Metrics) observeMembers(field string, added, removed int) {
	if m == nil {
		return
	}
	if added > 0 {
		m.members.WithLabelValues(field, "added").Add(float64(added))
	}
	if removed > 0 {
		m.members.WithLabelValues(field, "removed").Add(float64(removed))
	}
}
