package notify

import (
	"strings"
	"testing"

	"github.com/oceanplexian/naemon/internal/objects"
)

func countContaining(msgs []string, substr string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

func TestCheckServiceNotificationViability_ReasonsAreSpecific(t *testing.T) {
	ne := newTestEngine()
	ne.GlobalState.EnableNotifications = false

	host := &objects.Host{Name: "h1", CurrentState: objects.HostUp}
	svc := &objects.Service{
		Host:                 host,
		Description:          "HTTP",
		CurrentState:         objects.ServiceCritical,
		StateType:            objects.StateTypeHard,
		NotificationsEnabled: true,
	}

	if got := ne.checkServiceNotificationViability(svc, objects.NotificationNormal, 0); got != ReasonDisabled {
		t.Errorf("expected ReasonDisabled, got %v", got)
	}

	ne.GlobalState.EnableNotifications = true
	svc.ProblemAcknowledged = true
	if got := ne.checkServiceNotificationViability(svc, objects.NotificationNormal, 0); got != ReasonAcknowledged {
		t.Errorf("expected ReasonAcknowledged, got %v", got)
	}
}

func TestLogSuppressed_DedupesUntilReasonChanges(t *testing.T) {
	ne, logger := newTestEngineWithLogger()
	host := &objects.Host{Name: "h1", CurrentState: objects.HostUp}
	svc := &objects.Service{
		Host:                 host,
		Description:          "HTTP",
		CurrentState:         objects.ServiceCritical,
		StateType:            objects.StateTypeHard,
		NotificationsEnabled: false, // always ReasonDisabledObject
	}

	for i := 0; i < 3; i++ {
		ne.ServiceNotification(svc, objects.NotificationNormal, "", "", 0)
	}
	key := "h1;HTTP"
	if n := countContaining(logger.msgs, key); n != 1 {
		t.Errorf("expected exactly one suppression log line for an unchanging reason, got %d (%v)", n, logger.msgs)
	}

	svc.NotificationsEnabled = true
	svc.ProblemAcknowledged = true
	ne.ServiceNotification(svc, objects.NotificationNormal, "", "", 0)
	if n := countContaining(logger.msgs, key); n != 2 {
		t.Errorf("expected a new log line once the reason changed, got %d (%v)", n, logger.msgs)
	}
}
