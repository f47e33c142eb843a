package checker

import (
	"testing"

	"github.com/oceanplexian/naemon/internal/downtime"
	"github.com/oceanplexian/naemon/internal/objects"
)

func newFlapTestService() (*objects.Service, *objects.GlobalState) {
	host := &objects.Host{Name: "myhost"}
	svc := &objects.Service{
		Host:                 host,
		Description:          "HTTP",
		FlapDetectionEnabled: true,
		CurrentState:         objects.ServiceOK,
		StateType:            objects.StateTypeHard,
	}
	gs := &objects.GlobalState{
		EnableFlapDetection:      true,
		LowServiceFlapThreshold:  20.0,
		HighServiceFlapThreshold: 30.0,
	}
	return svc, gs
}

func TestFlapEngineServiceStartAndStopAddsAndRemovesComment(t *testing.T) {
	comments := downtime.NewCommentManager(1)
	var notified []int
	fe := NewFlapEngine(comments)
	fe.OnServiceNotification = func(svc *objects.Service, ntype int) {
		notified = append(notified, ntype)
	}

	svc, gs := newFlapTestService()

	// Drive an alternating state sequence through the engine: alternating
	// states produce a curved percent change well above the 30% high
	// threshold, matching TestCalculateFlapPercent_AllChanges.
	for i := 0; i < 21; i++ {
		svc.CurrentState = i % 2
		fe.CheckService(svc, gs, true)
	}

	if !svc.IsFlapping {
		t.Fatalf("expected service to be flagged flapping, percent=%.2f", svc.PercentStateChange)
	}
	if svc.FlappingCommentID == 0 {
		t.Fatal("expected a flapping comment to be added")
	}
	if c := comments.Get(svc.FlappingCommentID); c == nil {
		t.Fatal("flapping comment not found in comment manager")
	}
	if len(notified) == 0 || notified[len(notified)-1] != objects.NotificationFlappingStart {
		t.Fatalf("expected a trailing FLAPPINGSTART notification, got %v", notified)
	}

	// Hold state steady until the percent change decays below the low
	// threshold, which should clear the flap and remove the comment.
	for i := 0; i < 21; i++ {
		svc.CurrentState = objects.ServiceOK
		fe.CheckService(svc, gs, true)
	}

	if svc.IsFlapping {
		t.Fatalf("expected flapping to clear, percent=%.2f", svc.PercentStateChange)
	}
	if svc.FlappingCommentID != 0 {
		t.Fatal("expected flapping comment id to be cleared")
	}
	if notified[len(notified)-1] != objects.NotificationFlappingStop {
		t.Fatalf("expected a trailing FLAPPINGSTOP notification, got %v", notified)
	}
}

func TestFlapEngineServiceRecoveryNotificationOnStop(t *testing.T) {
	comments := downtime.NewCommentManager(1)
	var notified []int
	fe := NewFlapEngine(comments)
	fe.OnServiceNotification = func(svc *objects.Service, ntype int) {
		notified = append(notified, ntype)
	}

	svc, gs := newFlapTestService()
	svc.CurrentState = objects.ServiceCritical
	svc.CurrentNotificationNumber = 1

	// Alternate WARNING/CRITICAL so the service is in a problem state at
	// the check where the percent change first crosses the high threshold.
	for i := 0; i < 21; i++ {
		svc.CurrentState = objects.ServiceWarning + i%2
		fe.CheckService(svc, gs, true)
	}
	if !svc.IsFlapping {
		t.Fatalf("expected flapping to start, percent=%.2f", svc.PercentStateChange)
	}
	if !svc.CheckFlapRecoveryNotif {
		t.Fatal("expected check-flapping-recovery-notification flag to be set while in a problem state")
	}

	svc.CurrentState = objects.ServiceOK
	for i := 0; i < 21; i++ {
		fe.CheckService(svc, gs, true)
	}

	if svc.IsFlapping {
		t.Fatal("expected flapping to clear")
	}
	if notified[len(notified)-1] != objects.NotificationNormal {
		t.Fatalf("expected a trailing recovery notification after flap-stop while recovered, got %v", notified)
	}
	if svc.CheckFlapRecoveryNotif {
		t.Fatal("expected check-flapping-recovery-notification flag to be cleared")
	}
}

func TestFlapEngineDoesNothingWhenDisabled(t *testing.T) {
	comments := downtime.NewCommentManager(1)
	fe := NewFlapEngine(comments)
	svc, gs := newFlapTestService()
	gs.EnableFlapDetection = false

	for i := 0; i < 21; i++ {
		svc.CurrentState = i % 2
		fe.CheckService(svc, gs, true)
	}

	if svc.IsFlapping {
		t.Fatal("flap detection disabled globally: service must never be flagged flapping")
	}
}

func TestFlapEngineSkipsSoftNonRecoveryStates(t *testing.T) {
	comments := downtime.NewCommentManager(1)
	fe := NewFlapEngine(comments)
	svc, gs := newFlapTestService()
	svc.StateType = objects.StateTypeSoft
	svc.CurrentState = objects.ServiceCritical

	before := svc.PercentStateChange
	fe.CheckService(svc, gs, true)
	if svc.PercentStateChange != before {
		t.Fatal("soft non-recovery state must not be recorded in flap history")
	}
}
