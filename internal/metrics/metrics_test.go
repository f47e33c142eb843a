package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_CreatesAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m.ChecksTotal == nil {
		t.Error("ChecksTotal not initialized")
	}
	if m.CheckDuration == nil {
		t.Error("CheckDuration not initialized")
	}
	if m.NotificationsTotal == nil {
		t.Error("NotificationsTotal not initialized")
	}
	if m.CommandsTotal == nil {
		t.Error("CommandsTotal not initialized")
	}
	if m.ActiveDowntimes == nil {
		t.Error("ActiveDowntimes not initialized")
	}
	if m.QueuedEvents == nil {
		t.Error("QueuedEvents not initialized")
	}
}

func TestRecordCheck_IncrementsCounterAndHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordCheck("service", "OK", 0.25)
	m.RecordCheck("host", "UP", 0.1)

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	if !names["gogios_checks_total"] {
		t.Error("expected gogios_checks_total metric")
	}
	if !names["gogios_check_duration_seconds"] {
		t.Error("expected gogios_check_duration_seconds metric")
	}
}

func TestRecordCommand_TracksOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordCommand("SCHEDULE_HOST_DOWNTIME", "ok")
	m.RecordCommand("BOGUS_COMMAND", "unknown")

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "gogios_external_commands_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected gogios_external_commands_total metric")
	}
}

func TestGauges_SetValues(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetActiveDowntimes(3)
	m.SetQueuedEvents(42)

	if got := testutilGather(t, registry, "gogios_active_downtimes"); got != 3 {
		t.Errorf("ActiveDowntimes = %v, want 3", got)
	}
	if got := testutilGather(t, registry, "gogios_queued_events"); got != 42 {
		t.Errorf("QueuedEvents = %v, want 42", got)
	}
}

func testutilGather(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.RecordCheck("service", "OK", 0.1)
	m.RecordNotification("host")
	m.RecordCommand("X", "ok")
	m.SetActiveDowntimes(1)
	m.SetQueuedEvents(1)
}
