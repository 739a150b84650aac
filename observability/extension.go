package observability

import (
	"context"
	"reflect"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*MetricsExtension)(nil)
	_ ext.ProcessStarted     = (*MetricsExtension)(nil)
	_ ext.ProcessStartFailed = (*MetricsExtension)(nil)
	_ ext.ObjectProxied      = (*MetricsExtension)(nil)
	_ ext.WorkflowStarted    = (*MetricsExtension)(nil)
	_ ext.WorkflowStepFailed = (*MetricsExtension)(nil)
	_ ext.WorkflowCompleted  = (*MetricsExtension)(nil)
	_ ext.WorkflowFailed     = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide counters through a go-utils
// MetricFactory: proxies installed, processes started by intercepted
// calls, start failures, and run outcomes.
type MetricsExtension struct {
	ObjectsProxied     gu.Counter
	ProcessStarted     gu.Counter
	ProcessStartFailed gu.Counter
	WorkflowStarted    gu.Counter
	WorkflowStepFailed gu.Counter
	WorkflowCompleted  gu.Counter
	WorkflowFailed     gu.Counter
}

// NewMetricsExtension creates a MetricsExtension on a default collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("startflow/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension on factory.
// Use fapp.Metrics() in forge extensions.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		ObjectsProxied:     factory.Counter("startflow.objects.proxied"),
		ProcessStarted:     factory.Counter("startflow.process.started"),
		ProcessStartFailed: factory.Counter("startflow.process.start_failed"),
		WorkflowStarted:    factory.Counter("startflow.workflow.started"),
		WorkflowStepFailed: factory.Counter("startflow.workflow.step_failed"),
		WorkflowCompleted:  factory.Counter("startflow.workflow.completed"),
		WorkflowFailed:     factory.Counter("startflow.workflow.failed"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Interception hooks ──────────────────────────────

// OnObjectProxied implements ext.ObjectProxied.
func (m *MetricsExtension) OnObjectProxied(context.Context, string, reflect.Type, []string) error {
	m.ObjectsProxied.Inc()
	return nil
}

// OnProcessStarted implements ext.ProcessStarted.
func (m *MetricsExtension) OnProcessStarted(context.Context, *interceptor.Start, *workflow.Run) error {
	m.ProcessStarted.Inc()
	return nil
}

// OnProcessStartFailed implements ext.ProcessStartFailed.
func (m *MetricsExtension) OnProcessStartFailed(context.Context, *interceptor.Start, error) error {
	m.ProcessStartFailed.Inc()
	return nil
}

// ── Workflow lifecycle hooks ────────────────────────

// OnWorkflowStarted implements ext.WorkflowStarted.
func (m *MetricsExtension) OnWorkflowStarted(context.Context, *workflow.Run) error {
	m.WorkflowStarted.Inc()
	return nil
}

// OnWorkflowStepFailed implements ext.WorkflowStepFailed.
func (m *MetricsExtension) OnWorkflowStepFailed(context.Context, *workflow.Run, string, error) error {
	m.WorkflowStepFailed.Inc()
	return nil
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (m *MetricsExtension) OnWorkflowCompleted(context.Context, *workflow.Run, time.Duration) error {
	m.WorkflowCompleted.Inc()
	return nil
}

// OnWorkflowFailed implements ext.WorkflowFailed.
func (m *MetricsExtension) OnWorkflowFailed(context.Context, *workflow.Run, error) error {
	m.WorkflowFailed.Inc()
	return nil
}
