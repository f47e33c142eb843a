package checker

import (
	"fmt"
	"time"

	"github.com/oceanplexian/naemon/internal/downtime"
	"github.com/oceanplexian/naemon/internal/objects"
)

// FlapEngine wraps the pure percent-change math in flap.go with the
// transition side effects a flap start/stop actually triggers: a
// non-persistent comment while notifications are suppressed, a
// FLAPPINGSTART/FLAPPINGSTOP notification, and — if the object left a
// non-OK/non-UP hard state while notifications had already gone out —
// a trailing recovery notification once it settles back down.
type FlapEngine struct {
	Comments *downtime.CommentManager

	// OnServiceNotification/OnHostNotification fire FLAPPINGSTART,
	// FLAPPINGSTOP and (when the pending-recovery case applies) a
	// trailing NotificationNormal, the same callback indirection
	// checker.ServiceResultHandler/HostResultHandler already use to
	// reach the notification engine without importing it directly.
	OnServiceNotification func(svc *objects.Service, ntype int)
	OnHostNotification    func(hst *objects.Host, ntype int)

	Logger func(format string, args ...interface{})
}

// NewFlapEngine builds a flap engine backed by the given comment manager.
func NewFlapEngine(comments *downtime.CommentManager) *FlapEngine {
	return &FlapEngine{Comments: comments}
}

func (fe *FlapEngine) log(format string, args ...interface{}) {
	if fe.Logger != nil {
		fe.Logger(format, args...)
	}
}

// CheckService runs flap detection for a service following a check, and
// applies a start/stop transition if the threshold was crossed.
// update mirrors upstream: soft non-OK non-recovery states never reach
// this call at all (ShouldRecordServiceFlapState already filtered them
// out before UpdateFlapHistory ran).
func (fe *FlapEngine) CheckService(svc *objects.Service, gs *objects.GlobalState, update bool) {
	if svc == nil || !update {
		return
	}
	if svc.StateType == objects.StateTypeSoft && svc.CurrentState != objects.ServiceOK {
		return
	}

	lowThreshold := svc.LowFlapThreshold
	if lowThreshold <= 0 {
		lowThreshold = gs.LowServiceFlapThreshold
	}
	highThreshold := svc.HighFlapThreshold
	if highThreshold <= 0 {
		highThreshold = gs.HighServiceFlapThreshold
	}

	UpdateFlapHistory(&svc.StateHistory, &svc.StateHistoryIndex, &svc.PercentStateChange, svc.CurrentState)

	if !gs.EnableFlapDetection || !svc.FlapDetectionEnabled {
		return
	}

	isFlapping, changed := CheckFlapping(svc.IsFlapping, svc.PercentStateChange, lowThreshold, highThreshold)
	if !changed {
		return
	}

	if isFlapping {
		fe.setServiceFlap(svc, svc.PercentStateChange, highThreshold, lowThreshold)
	} else {
		fe.clearServiceFlap(svc, svc.PercentStateChange, highThreshold, lowThreshold)
	}
}

// CheckHost runs flap detection for a host. update is forced true when
// actualCheck is true, or when enough time has passed since the last
// recorded history entry (intervalLength converts NotificationInterval,
// expressed in "time units", into a wait threshold in seconds) — a host
// can go a long time between active checks, so history needs updating
// on that cadence even without a fresh check result.
func (fe *FlapEngine) CheckHost(hst *objects.Host, gs *objects.GlobalState, update, actualCheck bool, intervalLength int) {
	if hst == nil {
		return
	}

	waitThreshold := time.Duration(hst.NotificationInterval) * time.Duration(intervalLength) * time.Second
	if time.Since(hst.LastStateHistoryUpdate) > waitThreshold {
		update = true
	}
	if actualCheck {
		update = true
	}
	if !update {
		return
	}

	lowThreshold := hst.LowFlapThreshold
	if lowThreshold <= 0 {
		lowThreshold = gs.LowHostFlapThreshold
	}
	highThreshold := hst.HighFlapThreshold
	if highThreshold <= 0 {
		highThreshold = gs.HighHostFlapThreshold
	}

	hst.LastStateHistoryUpdate = time.Now()
	UpdateFlapHistory(&hst.StateHistory, &hst.StateHistoryIndex, &hst.PercentStateChange, hst.CurrentState)

	if !gs.EnableFlapDetection || !hst.FlapDetectionEnabled {
		return
	}

	isFlapping, changed := CheckFlapping(hst.IsFlapping, hst.PercentStateChange, lowThreshold, highThreshold)
	if !changed {
		return
	}

	if isFlapping {
		fe.setHostFlap(hst, hst.PercentStateChange, highThreshold, lowThreshold)
	} else {
		fe.clearHostFlap(hst, hst.PercentStateChange, highThreshold, lowThreshold)
	}
}

func (fe *FlapEngine) setServiceFlap(svc *objects.Service, percentChange, highThreshold, lowThreshold float64) {
	fe.log("SERVICE FLAPPING ALERT: %s;%s;STARTED; Service appears to have started flapping (%.1f%% change >= %.1f%% threshold)",
		svc.Host.Name, svc.Description, percentChange, highThreshold)

	if fe.Comments != nil {
		id := fe.Comments.Add(&downtime.Comment{
			CommentType:        objects.ServiceCommentType,
			EntryType:          objects.FlappingCommentEntry,
			HostName:           svc.Host.Name,
			ServiceDescription: svc.Description,
			Author:             "(Naemon Process)",
			Data: fmt.Sprintf("Notifications for this service are being suppressed because it was detected as "+
				"having been flapping between different states (%.1f%% change >= %.1f%% threshold). When the "+
				"service state stabilizes and the flapping stops, notifications will be re-enabled.", percentChange, highThreshold),
		})
		svc.FlappingCommentID = id
	}

	svc.IsFlapping = true

	if svc.CurrentState != objects.ServiceOK && svc.CurrentNotificationNumber > 0 {
		svc.CheckFlapRecoveryNotif = true
	} else {
		svc.CheckFlapRecoveryNotif = false
	}

	if fe.OnServiceNotification != nil {
		fe.OnServiceNotification(svc, objects.NotificationFlappingStart)
	}
}

func (fe *FlapEngine) clearServiceFlap(svc *objects.Service, percentChange, highThreshold, lowThreshold float64) {
	fe.log("SERVICE FLAPPING ALERT: %s;%s;STOPPED; Service appears to have stopped flapping (%.1f%% change < %.1f%% threshold)",
		svc.Host.Name, svc.Description, percentChange, lowThreshold)

	if fe.Comments != nil && svc.FlappingCommentID != 0 {
		fe.Comments.Delete(svc.FlappingCommentID)
		svc.FlappingCommentID = 0
	}

	svc.IsFlapping = false

	if fe.OnServiceNotification != nil {
		fe.OnServiceNotification(svc, objects.NotificationFlappingStop)
		if svc.CheckFlapRecoveryNotif && svc.CurrentState == objects.ServiceOK {
			fe.OnServiceNotification(svc, objects.NotificationNormal)
		}
	}
	svc.CheckFlapRecoveryNotif = false
}

func (fe *FlapEngine) setHostFlap(hst *objects.Host, percentChange, highThreshold, lowThreshold float64) {
	fe.log("HOST FLAPPING ALERT: %s;STARTED; Host appears to have started flapping (%.1f%% change > %.1f%% threshold)",
		hst.Name, percentChange, highThreshold)

	if fe.Comments != nil {
		id := fe.Comments.Add(&downtime.Comment{
			CommentType: objects.HostCommentType,
			EntryType:   objects.FlappingCommentEntry,
			HostName:    hst.Name,
			Author:      "(Naemon Process)",
			Data: fmt.Sprintf("Notifications for this host are being suppressed because it was detected as "+
				"having been flapping between different states (%.1f%% change > %.1f%% threshold). When the "+
				"host state stabilizes and the flapping stops, notifications will be re-enabled.", percentChange, highThreshold),
		})
		hst.FlappingCommentID = id
	}

	hst.IsFlapping = true

	if hst.CurrentState != objects.HostUp && hst.CurrentNotificationNumber > 0 {
		hst.CheckFlapRecoveryNotif = true
	} else {
		hst.CheckFlapRecoveryNotif = false
	}

	if fe.OnHostNotification != nil {
		fe.OnHostNotification(hst, objects.NotificationFlappingStart)
	}
}

func (fe *FlapEngine) clearHostFlap(hst *objects.Host, percentChange, highThreshold, lowThreshold float64) {
	fe.log("HOST FLAPPING ALERT: %s;STOPPED; Host appears to have stopped flapping (%.1f%% change < %.1f%% threshold)",
		hst.Name, percentChange, lowThreshold)

	if fe.Comments != nil && hst.FlappingCommentID != 0 {
		fe.Comments.Delete(hst.FlappingCommentID)
		hst.FlappingCommentID = 0
	}

	hst.IsFlapping = false

	if fe.OnHostNotification != nil {
		fe.OnHostNotification(hst, objects.NotificationFlappingStop)
		if hst.CheckFlapRecoveryNotif && hst.CurrentState == objects.HostUp {
			fe.OnHostNotification(hst, objects.NotificationNormal)
		}
	}
	hst.CheckFlapRecoveryNotif = false
}
