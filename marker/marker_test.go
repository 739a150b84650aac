package marker_test

import (
	"testing"

	"github.com/xraph/startflow/marker"
)

// onboarding is a composed marker that carries StartProcess one level down.
type onboarding struct{}

func (onboarding) MarkerName() string { return "Onboarding" }
func (onboarding) Meta() []marker.Marker {
	return []marker.Marker{marker.StartProcess{ProcessKey: "onboarding"}}
}

// nested wraps onboarding, which is two levels away from StartProcess.
type nested struct{}

func (nested) MarkerName() string    { return "Nested" }
func (nested) Meta() []marker.Marker { return []marker.Marker{onboarding{}} }

func TestTriggerOf_Direct(t *testing.T) {
	sp, ok := marker.TriggerOf([]marker.Marker{marker.StartProcess{ProcessKey: "order-process"}})
	if !ok {
		t.Fatal("expected direct StartProcess to match")
	}
	if sp.ProcessKey != "order-process" {
		t.Errorf("ProcessKey = %q, want %q", sp.ProcessKey, "order-process")
	}
}

func TestTriggerOf_Meta(t *testing.T) {
	sp, ok := marker.TriggerOf([]marker.Marker{onboarding{}})
	if !ok {
		t.Fatal("expected meta marker to match")
	}
	if sp.ProcessKey != "onboarding" {
		t.Errorf("ProcessKey = %q, want %q", sp.ProcessKey, "onboarding")
	}
}

func TestTriggerOf_OnlyOneLevel(t *testing.T) {
	if _, ok := marker.TriggerOf([]marker.Marker{nested{}}); ok {
		t.Error("expected two-level composition not to match")
	}
}

func TestTriggerOf_DirectWinsOverMeta(t *testing.T) {
	sp, ok := marker.TriggerOf([]marker.Marker{onboarding{}, marker.StartProcess{ProcessKey: "direct"}})
	if !ok {
		t.Fatal("expected a match")
	}
	if sp.ProcessKey != "direct" {
		t.Errorf("ProcessKey = %q, want %q", sp.ProcessKey, "direct")
	}
}

func TestTriggerOf_None(t *testing.T) {
	if _, ok := marker.TriggerOf([]marker.Marker{marker.ProcessVariable{Name: "x"}}); ok {
		t.Error("expected no match")
	}
	if _, ok := marker.TriggerOf(nil); ok {
		t.Error("expected no match for nil markers")
	}
}

func TestParamVariable(t *testing.T) {
	v, ok := marker.Var("customerId", "customer").Variable()
	if !ok || v.Name != "customer" {
		t.Errorf("Var().Variable() = %+v, %v", v, ok)
	}
	if _, ok := marker.Arg("amount").Variable(); ok {
		t.Error("Arg should carry no variable marker")
	}
}

func TestTrigger(t *testing.T) {
	m := marker.Trigger("PlaceOrder", "order-process", marker.Var("customerId", "customer"))
	if m.Name != "PlaceOrder" {
		t.Errorf("Name = %q", m.Name)
	}
	if len(m.Params) != 1 || m.Params[0].Name != "customerId" {
		t.Errorf("Params = %+v", m.Params)
	}
	sp, ok := marker.TriggerOf(m.Markers)
	if !ok || sp.ProcessKey != "order-process" {
		t.Errorf("TriggerOf = %+v, %v", sp, ok)
	}
}
