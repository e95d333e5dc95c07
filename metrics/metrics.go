package metrics

import (
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 一次运行的计数器，使用私有 registry，不污染默认 registry
type Recorder struct {
	registry *prometheus.Registry

	ProjectsTotal          *prometheus.CounterVec
	EntryPointsTotal       *prometheus.CounterVec
	DependencyRecordsTotal *prometheus.CounterVec
	CallEdgesTotal         prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.ProjectsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "epa_projects_total",
			Help: "Projects processed, by outcome status",
		},
		[]string{"status"},
	)
	r.EntryPointsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "epa_entry_points_total",
			Help: "Entry points discovered, by framework",
		},
		[]string{"framework"},
	)
	r.DependencyRecordsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "epa_dependency_records_total",
			Help: "Dependency records classified, by record type",
		},
		[]string{"type"},
	)
	r.CallEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "epa_call_edges_total",
			Help: "Internal call edges recorded across all entry points",
		},
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RecordProject 记录一个项目的处理结果
func (r *Recorder) RecordProject(status model.ProjectStatus) {
	if r == nil {
		return
	}
	r.ProjectsTotal.WithLabelValues(string(status)).Inc()
}

// RecordEntryPoint 记录一个入口点及其依赖图的计数
func (r *Recorder) RecordEntryPoint(ep *model.EntryPoint, graph *model.DependencyGraphResult) {
	if r == nil || ep == nil {
		return
	}
	r.EntryPointsTotal.WithLabelValues(string(ep.Framework)).Inc()
	if graph == nil {
		return
	}
	r.CallEdgesTotal.Add(float64(len(graph.Edges)))
	for _, rec := range graph.Records {
		r.DependencyRecordsTotal.WithLabelValues(string(rec.Type)).Inc()
	}
}

// WriteTextfile 以 node_exporter textfile 格式写出全部计数器
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
