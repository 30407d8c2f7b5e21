package observability

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/patchbay-sh/patchbay/internal/eventbus"
)

// GraphStatsSnapshot is a point-in-time view of the engine's persisted
// graph sizes.
type GraphStatsSnapshot struct {
	Templates     int
	Instances     int
	WiringEdges   int
	WiringOrphans int
	OutputWires   int
}

// PrometheusExporter renders engine metrics in Prometheus text format.
type PrometheusExporter struct {
	counter    *EventCounter
	graphStats func() GraphStatsSnapshot
}

// NewPrometheusExporter constructs an exporter backed by the event counter.
func NewPrometheusExporter(counter *EventCounter) *PrometheusExporter {
	return &PrometheusExporter{counter: counter}
}

// WithGraphStats enables exporting graph size gauges.
func (e *PrometheusExporter) WithGraphStats(provider func() GraphStatsSnapshot) {
	e.graphStats = provider
}

// Export produces the metrics payload in Prometheus' text exposition
// format.
func (e *PrometheusExporter) Export() []byte {
	var buf bytes.Buffer

	e.writeEventCounters(&buf)
	e.writeGraphStats(&buf)

	return buf.Bytes()
}

func (e *PrometheusExporter) writeEventCounters(buf *bytes.Buffer) {
	if e.counter == nil {
		return
	}

	counts := e.counter.Snapshot()
	if len(counts) == 0 {
		return
	}

	buf.WriteString("# HELP patchbay_events_total Total number of published events per topic.\n")
	buf.WriteString("# TYPE patchbay_events_total counter\n")

	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, string(topic))
	}
	sort.Strings(topics)
	for _, topicName := range topics {
		value := counts[eventbus.Topic(topicName)]
		buf.WriteString(fmt.Sprintf("patchbay_events_total{topic=%q} %d\n", topicName, value))
	}
}

func (e *PrometheusExporter) writeGraphStats(buf *bytes.Buffer) {
	if e.graphStats == nil {
		return
	}

	snapshot := e.graphStats()

	buf.WriteString("# HELP patchbay_templates Number of loaded templates.\n")
	buf.WriteString("# TYPE patchbay_templates gauge\n")
	buf.WriteString(fmt.Sprintf("patchbay_templates %d\n", snapshot.Templates))

	buf.WriteString("# HELP patchbay_instances Number of saved instances.\n")
	buf.WriteString("# TYPE patchbay_instances gauge\n")
	buf.WriteString(fmt.Sprintf("patchbay_instances %d\n", snapshot.Instances))

	buf.WriteString("# HELP patchbay_wiring_edges Number of capability wiring edges.\n")
	buf.WriteString("# TYPE patchbay_wiring_edges gauge\n")
	buf.WriteString(fmt.Sprintf("patchbay_wiring_edges %d\n", snapshot.WiringEdges))

	buf.WriteString("# HELP patchbay_wiring_orphans Number of wiring edges whose provider or consumer is gone.\n")
	buf.WriteString("# TYPE patchbay_wiring_orphans gauge\n")
	buf.WriteString(fmt.Sprintf("patchbay_wiring_orphans %d\n", snapshot.WiringOrphans))

	buf.WriteString("# HELP patchbay_output_wires Number of output-to-input wires.\n")
	buf.WriteString("# TYPE patchbay_output_wires gauge\n")
	buf.WriteString(fmt.Sprintf("patchbay_output_wires %d\n", snapshot.OutputWires))
}
