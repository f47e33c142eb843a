package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oceanplexian/naemon/internal/command"
	"github.com/oceanplexian/naemon/internal/downtime"
	"github.com/oceanplexian/naemon/internal/logging"
	"github.com/oceanplexian/naemon/internal/metrics"
	"github.com/oceanplexian/naemon/internal/notify"
	"github.com/oceanplexian/naemon/internal/objects"
	"github.com/oceanplexian/naemon/internal/scheduler"
)

// objectResolver adapts the live object store to command.Resolver so the
// catalog's object-typed argument validators (HOST=, HOSTGROUP=, ...) can
// reject a command naming an object that doesn't exist, the way upstream's
// GV_HOST/GV_HOSTGROUP accessors do before a handler ever runs.
type objectResolver struct {
	store *objects.ObjectStore
}

func (r *objectResolver) HostExists(name string) bool { return r.store.GetHost(name) != nil }
func (r *objectResolver) HostGroupExists(name string) bool {
	return r.store.GetHostGroup(name) != nil
}
func (r *objectResolver) ServiceExists(hostName, desc string) bool {
	return r.store.GetService(hostName, desc) != nil
}
func (r *objectResolver) ServiceGroupExists(name string) bool {
	return r.store.GetServiceGroup(name) != nil
}
func (r *objectResolver) ContactExists(name string) bool { return r.store.GetContact(name) != nil }
func (r *objectResolver) ContactGroupExists(name string) bool {
	return r.store.GetContactGroup(name) != nil
}
func (r *objectResolver) TimeperiodExists(name string) bool {
	return r.store.GetTimeperiod(name) != nil
}

func argString(cmd *command.BoundCommand, name string) string {
	v, _ := cmd.Arg(name)
	return v.StringV
}

func argBool(cmd *command.BoundCommand, name string) bool {
	v, _ := cmd.Arg(name)
	return v.BoolV
}

func argULong(cmd *command.BoundCommand, name string) uint64 {
	v, _ := cmd.Arg(name)
	return v.ULongV
}

func argTimestamp(cmd *command.BoundCommand, name string) time.Time {
	v, _ := cmd.Arg(name)
	return v.TimestampV
}

func argService(cmd *command.BoundCommand, name string) (hostName, desc string) {
	v, _ := cmd.Arg(name)
	return v.HostName, v.StringV
}

// commandDeps bundles everything a command handler needs. Built once in
// runDaemon and closed over by every registered handler.
type commandDeps struct {
	store       *objects.ObjectStore
	cfg         *objects.Config
	gs          *objects.GlobalState
	sched       *scheduler.Scheduler
	notifEngine *notify.NotificationEngine
	commentMgr  *downtime.CommentManager
	downtimeMgr *downtime.DowntimeManager
	logger      *logging.Logger
	resultCh    chan *objects.CheckResult
}

// hostGroupMembers and serviceGroupMembers back DeleteByFilter's
// group-name-to-member-list callback and the hostgroup/servicegroup
// downtime fan-out handlers below.
func (d *commandDeps) hostGroupMembers(name string) []string {
	hg := d.store.GetHostGroup(name)
	if hg == nil {
		return nil
	}
	names := make([]string, len(hg.Members))
	for i, h := range hg.Members {
		names[i] = h.Name
	}
	return names
}

func (d *commandDeps) serviceGroupHosts(name string) []string {
	sg := d.store.GetServiceGroup(name)
	if sg == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, svc := range sg.Members {
		if svc.Host == nil || seen[svc.Host.Name] {
			continue
		}
		seen[svc.Host.Name] = true
		names = append(names, svc.Host.Name)
	}
	return names
}

// buildCommandCatalog registers every external command this daemon
// understands against a typed command.Catalog: each command's argument
// types and validators come from the catalog (component B/C), replacing
// the teacher's per-command fmt.Sscanf/cmd.Args[n] indexing.
func buildCommandCatalog(d *commandDeps) *command.Catalog {
	c := command.NewCatalog()
	must := func(name, description, argspec string, h command.HandlerFunc) {
		if _, err := c.Register(name, -1, h, description, argspec); err != nil {
			panic(fmt.Sprintf("command catalog: %v", err))
		}
	}

	// --- Global toggles ---
	must("ENABLE_NOTIFICATIONS", "enable all notifications", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableNotifications = true
		d.logger.Log("EXTERNAL COMMAND: ENABLE_NOTIFICATIONS")
		return nil
	})
	must("DISABLE_NOTIFICATIONS", "disable all notifications", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableNotifications = false
		d.logger.Log("EXTERNAL COMMAND: DISABLE_NOTIFICATIONS")
		return nil
	})
	must("START_EXECUTING_SVC_CHECKS", "resume active service checks", "", func(cmd *command.BoundCommand) error {
		d.cfg.ExecuteServiceChecks = true
		d.gs.ExecuteServiceChecks = true
		d.logger.Log("EXTERNAL COMMAND: START_EXECUTING_SVC_CHECKS")
		return nil
	})
	must("STOP_EXECUTING_SVC_CHECKS", "suspend active service checks", "", func(cmd *command.BoundCommand) error {
		d.cfg.ExecuteServiceChecks = false
		d.gs.ExecuteServiceChecks = false
		d.logger.Log("EXTERNAL COMMAND: STOP_EXECUTING_SVC_CHECKS")
		return nil
	})
	must("START_EXECUTING_HOST_CHECKS", "resume active host checks", "", func(cmd *command.BoundCommand) error {
		d.cfg.ExecuteHostChecks = true
		d.gs.ExecuteHostChecks = true
		d.logger.Log("EXTERNAL COMMAND: START_EXECUTING_HOST_CHECKS")
		return nil
	})
	must("STOP_EXECUTING_HOST_CHECKS", "suspend active host checks", "", func(cmd *command.BoundCommand) error {
		d.cfg.ExecuteHostChecks = false
		d.gs.ExecuteHostChecks = false
		d.logger.Log("EXTERNAL COMMAND: STOP_EXECUTING_HOST_CHECKS")
		return nil
	})
	must("ENABLE_EVENT_HANDLERS", "enable event handlers", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableEventHandlers = true
		d.logger.Log("EXTERNAL COMMAND: ENABLE_EVENT_HANDLERS")
		return nil
	})
	must("DISABLE_EVENT_HANDLERS", "disable event handlers", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableEventHandlers = false
		d.logger.Log("EXTERNAL COMMAND: DISABLE_EVENT_HANDLERS")
		return nil
	})
	must("ENABLE_FLAP_DETECTION", "enable flap detection", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableFlapDetection = true
		d.logger.Log("EXTERNAL COMMAND: ENABLE_FLAP_DETECTION")
		return nil
	})
	must("DISABLE_FLAP_DETECTION", "disable flap detection", "", func(cmd *command.BoundCommand) error {
		d.gs.EnableFlapDetection = false
		d.logger.Log("EXTERNAL COMMAND: DISABLE_FLAP_DETECTION")
		return nil
	})
	must("SHUTDOWN_PROCESS", "stop the daemon", "", func(cmd *command.BoundCommand) error {
		d.logger.Log("EXTERNAL COMMAND: SHUTDOWN_PROCESS")
		d.sched.Stop()
		return nil
	})
	must("SHUTDOWN_PROGRAM", "stop the daemon", "", func(cmd *command.BoundCommand) error {
		d.logger.Log("EXTERNAL COMMAND: SHUTDOWN_PROGRAM")
		d.sched.Stop()
		return nil
	})

	// --- Passive check results ---
	must("PROCESS_SERVICE_CHECK_RESULT", "submit a passive service check result",
		"SERVICE=service;INT=rc;STRING=output", func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			svc := d.store.GetService(hostName, svcDesc)
			if svc == nil {
				return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
			}
			now := time.Now()
			cr := &objects.CheckResult{
				HostName:           hostName,
				ServiceDescription: svcDesc,
				CheckType:          objects.CheckTypePassive,
				ReturnCode:         argIntValue(cmd, "rc"),
				Output:             argString(cmd, "output"),
				StartTime:          now,
				FinishTime:         now,
				ExitedOK:           true,
			}
			go func() { d.resultCh <- cr }()
			return nil
		})
	must("PROCESS_HOST_CHECK_RESULT", "submit a passive host check result",
		"HOST=host;INT=rc;STRING=output", func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			if d.store.GetHost(hostName) == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			now := time.Now()
			cr := &objects.CheckResult{
				HostName:   hostName,
				CheckType:  objects.CheckTypePassive,
				ReturnCode: argIntValue(cmd, "rc"),
				Output:     argString(cmd, "output"),
				StartTime:  now,
				FinishTime: now,
				ExitedOK:   true,
			}
			go func() { d.resultCh <- cr }()
			return nil
		})

	// --- Forced checks ---
	must("SCHEDULE_FORCED_SVC_CHECK", "force an immediate service check",
		"SERVICE=service;TIMESTAMP=check_time", func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			d.sched.AddEvent(&scheduler.Event{
				Type:               scheduler.EventServiceCheck,
				RunTime:            argTimestamp(cmd, "check_time"),
				HostName:           hostName,
				ServiceDescription: svcDesc,
				CheckOptions:       objects.CheckOptionForceExecution,
			})
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_FORCED_SVC_CHECK;%s;%s", hostName, svcDesc)
			return nil
		})
	must("SCHEDULE_FORCED_HOST_CHECK", "force an immediate host check",
		"HOST=host;TIMESTAMP=check_time", func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			d.sched.AddEvent(&scheduler.Event{
				Type:         scheduler.EventHostCheck,
				RunTime:      argTimestamp(cmd, "check_time"),
				HostName:     hostName,
				CheckOptions: objects.CheckOptionForceExecution,
			})
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_FORCED_HOST_CHECK;%s", hostName)
			return nil
		})

	// --- Acknowledgements ---
	must("ACKNOWLEDGE_SVC_PROBLEM", "acknowledge a service problem",
		"SERVICE=service;INT=sticky;BOOL=notify;BOOL=persistent;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			svc := d.store.GetService(hostName, svcDesc)
			if svc == nil {
				return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
			}
			if argIntValue(cmd, "sticky") == 2 {
				svc.AckType = objects.AckSticky
			} else {
				svc.AckType = objects.AckNormal
			}
			svc.ProblemAcknowledged = true
			author, comment := argString(cmd, "author"), argString(cmd, "comment")
			if argBool(cmd, "notify") {
				d.notifEngine.ServiceNotification(svc, objects.NotificationAcknowledgement, author, comment, 0)
			}
			d.logger.Log("EXTERNAL COMMAND: ACKNOWLEDGE_SVC_PROBLEM;%s;%s", hostName, svcDesc)
			return nil
		})
	must("ACKNOWLEDGE_HOST_PROBLEM", "acknowledge a host problem",
		"HOST=host;INT=sticky;BOOL=notify;BOOL=persistent;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			host := d.store.GetHost(hostName)
			if host == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			if argIntValue(cmd, "sticky") == 2 {
				host.AckType = objects.AckSticky
			} else {
				host.AckType = objects.AckNormal
			}
			host.ProblemAcknowledged = true
			author, comment := argString(cmd, "author"), argString(cmd, "comment")
			if argBool(cmd, "notify") {
				d.notifEngine.HostNotification(host, objects.NotificationAcknowledgement, author, comment, 0)
			}
			d.logger.Log("EXTERNAL COMMAND: ACKNOWLEDGE_HOST_PROBLEM;%s", hostName)
			return nil
		})
	must("REMOVE_SVC_ACKNOWLEDGEMENT", "clear a service acknowledgement",
		"SERVICE=service", func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			svc := d.store.GetService(hostName, svcDesc)
			if svc == nil {
				return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
			}
			svc.ProblemAcknowledged = false
			svc.AckType = objects.AckNone
			d.logger.Log("EXTERNAL COMMAND: REMOVE_SVC_ACKNOWLEDGEMENT;%s;%s", hostName, svcDesc)
			return nil
		})
	must("REMOVE_HOST_ACKNOWLEDGEMENT", "clear a host acknowledgement",
		"HOST=host", func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			host := d.store.GetHost(hostName)
			if host == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			host.ProblemAcknowledged = false
			host.AckType = objects.AckNone
			d.logger.Log("EXTERNAL COMMAND: REMOVE_HOST_ACKNOWLEDGEMENT;%s", hostName)
			return nil
		})

	// --- Per-host/service notification and check toggles ---
	must("DISABLE_HOST_NOTIFICATIONS", "disable notifications for a host", "HOST=host",
		func(cmd *command.BoundCommand) error { return toggleHost(d, cmd, func(h *objects.Host) { h.NotificationsEnabled = false }, "DISABLE_HOST_NOTIFICATIONS") })
	must("ENABLE_HOST_NOTIFICATIONS", "enable notifications for a host", "HOST=host",
		func(cmd *command.BoundCommand) error { return toggleHost(d, cmd, func(h *objects.Host) { h.NotificationsEnabled = true }, "ENABLE_HOST_NOTIFICATIONS") })
	must("DISABLE_SVC_NOTIFICATIONS", "disable notifications for a service", "SERVICE=service",
		func(cmd *command.BoundCommand) error { return toggleService(d, cmd, func(s *objects.Service) { s.NotificationsEnabled = false }, "DISABLE_SVC_NOTIFICATIONS") })
	must("ENABLE_SVC_NOTIFICATIONS", "enable notifications for a service", "SERVICE=service",
		func(cmd *command.BoundCommand) error { return toggleService(d, cmd, func(s *objects.Service) { s.NotificationsEnabled = true }, "ENABLE_SVC_NOTIFICATIONS") })
	must("DISABLE_HOST_CHECK", "disable active checks for a host", "HOST=host",
		func(cmd *command.BoundCommand) error { return toggleHost(d, cmd, func(h *objects.Host) { h.ActiveChecksEnabled = false }, "DISABLE_HOST_CHECK") })
	must("ENABLE_HOST_CHECK", "enable active checks for a host", "HOST=host",
		func(cmd *command.BoundCommand) error { return toggleHost(d, cmd, func(h *objects.Host) { h.ActiveChecksEnabled = true }, "ENABLE_HOST_CHECK") })
	must("DISABLE_SVC_CHECK", "disable active checks for a service", "SERVICE=service",
		func(cmd *command.BoundCommand) error { return toggleService(d, cmd, func(s *objects.Service) { s.ActiveChecksEnabled = false }, "DISABLE_SVC_CHECK") })
	must("ENABLE_SVC_CHECK", "enable active checks for a service", "SERVICE=service",
		func(cmd *command.BoundCommand) error { return toggleService(d, cmd, func(s *objects.Service) { s.ActiveChecksEnabled = true }, "ENABLE_SVC_CHECK") })

	// --- Custom variables ---
	must("CHANGE_CUSTOM_HOST_VAR", "set a host custom variable",
		"HOST=host;CUSTOMVAR=varname;STRING=value", func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			host := d.store.GetHost(hostName)
			if host == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			setCustomVar(&host.CustomVars, argString(cmd, "varname"), argString(cmd, "value"))
			d.logger.Log("EXTERNAL COMMAND: CHANGE_CUSTOM_HOST_VAR;%s;%s", hostName, argString(cmd, "varname"))
			return nil
		})
	must("CHANGE_CUSTOM_SVC_VAR", "set a service custom variable",
		"SERVICE=service;CUSTOMVAR=varname;STRING=value", func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			svc := d.store.GetService(hostName, svcDesc)
			if svc == nil {
				return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
			}
			setCustomVar(&svc.CustomVars, argString(cmd, "varname"), argString(cmd, "value"))
			d.logger.Log("EXTERNAL COMMAND: CHANGE_CUSTOM_SVC_VAR;%s;%s;%s", hostName, svcDesc, argString(cmd, "varname"))
			return nil
		})
	must("CHANGE_CUSTOM_CONTACT_VAR", "set a contact custom variable",
		"CONTACT=contact;CUSTOMVAR=varname;STRING=value", func(cmd *command.BoundCommand) error {
			contactName := argString(cmd, "contact")
			contact := d.store.GetContact(contactName)
			if contact == nil {
				return fmt.Errorf("unknown contact %s", contactName)
			}
			setCustomVar(&contact.CustomVars, argString(cmd, "varname"), argString(cmd, "value"))
			d.logger.Log("EXTERNAL COMMAND: CHANGE_CUSTOM_CONTACT_VAR;%s;%s", contactName, argString(cmd, "varname"))
			return nil
		})

	// --- Downtime scheduling ---
	must("SCHEDULE_HOST_DOWNTIME", "schedule downtime for a host",
		"HOST=host;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			if d.store.GetHost(hostName) == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			dt := hostDowntimeFromArgs(cmd, hostName)
			d.downtimeMgr.Schedule(dt)
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_HOST_DOWNTIME;%s", hostName)
			return nil
		})
	must("SCHEDULE_SVC_DOWNTIME", "schedule downtime for a service",
		"SERVICE=service;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName, svcDesc := argService(cmd, "service")
			if d.store.GetService(hostName, svcDesc) == nil {
				return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
			}
			dt := serviceDowntimeFromArgs(cmd, hostName, svcDesc)
			d.downtimeMgr.Schedule(dt)
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_SVC_DOWNTIME;%s;%s", hostName, svcDesc)
			return nil
		})
	must("SCHEDULE_AND_PROPAGATE_HOST_DOWNTIME", "schedule downtime for a host and its children",
		"HOST=host;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			if d.store.GetHost(hostName) == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			dt := hostDowntimeFromArgs(cmd, hostName)
			d.downtimeMgr.ScheduleAndPropagate(dt, false)
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_AND_PROPAGATE_HOST_DOWNTIME;%s", hostName)
			return nil
		})
	must("SCHEDULE_AND_PROPAGATE_TRIGGERED_HOST_DOWNTIME", "schedule downtime for a host, triggering downtime on its children",
		"HOST=host;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			hostName := argString(cmd, "host")
			if d.store.GetHost(hostName) == nil {
				return fmt.Errorf("unknown host %s", hostName)
			}
			dt := hostDowntimeFromArgs(cmd, hostName)
			d.downtimeMgr.ScheduleAndPropagate(dt, true)
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_AND_PROPAGATE_TRIGGERED_HOST_DOWNTIME;%s", hostName)
			return nil
		})
	must("SCHEDULE_HOSTGROUP_HOST_DOWNTIME", "schedule downtime for every host in a hostgroup",
		"HOSTGROUP=hostgroup;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			group := argString(cmd, "hostgroup")
			for _, hostName := range d.hostGroupMembers(group) {
				d.downtimeMgr.Schedule(hostDowntimeFromArgs(cmd, hostName))
			}
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_HOSTGROUP_HOST_DOWNTIME;%s", group)
			return nil
		})
	must("SCHEDULE_HOSTGROUP_SVC_DOWNTIME", "schedule downtime for every service on every host in a hostgroup",
		"HOSTGROUP=hostgroup;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			group := argString(cmd, "hostgroup")
			for _, hostName := range d.hostGroupMembers(group) {
				for _, svc := range d.store.GetServicesForHost(hostName) {
					d.downtimeMgr.Schedule(serviceDowntimeFromArgs(cmd, hostName, svc.Description))
				}
			}
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_HOSTGROUP_SVC_DOWNTIME;%s", group)
			return nil
		})
	must("SCHEDULE_SERVICEGROUP_HOST_DOWNTIME", "schedule downtime for every host with a member service in a servicegroup",
		"SERVICEGROUP=servicegroup;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			group := argString(cmd, "servicegroup")
			for _, hostName := range d.serviceGroupHosts(group) {
				d.downtimeMgr.Schedule(hostDowntimeFromArgs(cmd, hostName))
			}
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_SERVICEGROUP_HOST_DOWNTIME;%s", group)
			return nil
		})
	must("SCHEDULE_SERVICEGROUP_SVC_DOWNTIME", "schedule downtime for every service in a servicegroup",
		"SERVICEGROUP=servicegroup;TIMESTAMP=start;TIMESTAMP=end;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment",
		func(cmd *command.BoundCommand) error {
			group := argString(cmd, "servicegroup")
			sg := d.store.GetServiceGroup(group)
			if sg == nil {
				return fmt.Errorf("unknown servicegroup %s", group)
			}
			for _, svc := range sg.Members {
				if svc.Host == nil {
					continue
				}
				d.downtimeMgr.Schedule(serviceDowntimeFromArgs(cmd, svc.Host.Name, svc.Description))
			}
			d.logger.Log("EXTERNAL COMMAND: SCHEDULE_SERVICEGROUP_SVC_DOWNTIME;%s", group)
			return nil
		})
	must("DEL_HOST_DOWNTIME", "cancel a single downtime by id", "ULONG=downtime_id",
		func(cmd *command.BoundCommand) error {
			id := argULong(cmd, "downtime_id")
			d.downtimeMgr.Unschedule(id)
			d.logger.Log("EXTERNAL COMMAND: DEL_HOST_DOWNTIME;%d", id)
			return nil
		})
	must("DEL_SVC_DOWNTIME", "cancel a single downtime by id", "ULONG=downtime_id",
		func(cmd *command.BoundCommand) error {
			id := argULong(cmd, "downtime_id")
			d.downtimeMgr.Unschedule(id)
			d.logger.Log("EXTERNAL COMMAND: DEL_SVC_DOWNTIME;%d", id)
			return nil
		})

	// --- Filter-based bulk downtime deletion ---
	must("DEL_DOWNTIME_BY_HOST_NAME", "cancel every downtime matching a host (and optional service/start-time/comment filter)",
		"HOST=host;STRING=svc:;STRING=start:;STRING=comment:", func(cmd *command.BoundCommand) error {
			crit := downtime.FilterCriteria{
				HostName:    argString(cmd, "host"),
				ServiceDesc: argString(cmd, "svc"),
				Comment:     argString(cmd, "comment"),
			}
			applyStartTimeFilter(&crit, argString(cmd, "start"))
			res := d.downtimeMgr.DeleteByFilter(crit, d.hostGroupMembers)
			d.logger.Log("EXTERNAL COMMAND: DEL_DOWNTIME_BY_HOST_NAME;%s (matched %d, deleted %d)",
				crit.HostName, res.Matched, res.Deleted)
			return nil
		})
	must("DEL_DOWNTIME_BY_HOSTGROUP_NAME", "cancel every downtime matching a hostgroup (and optional service/start-time/comment filter)",
		"HOSTGROUP=hostgroup;STRING=svc:;STRING=start:;STRING=comment:", func(cmd *command.BoundCommand) error {
			crit := downtime.FilterCriteria{
				HostGroupName: argString(cmd, "hostgroup"),
				ServiceDesc:   argString(cmd, "svc"),
				Comment:       argString(cmd, "comment"),
			}
			applyStartTimeFilter(&crit, argString(cmd, "start"))
			res := d.downtimeMgr.DeleteByFilter(crit, d.hostGroupMembers)
			d.logger.Log("EXTERNAL COMMAND: DEL_DOWNTIME_BY_HOSTGROUP_NAME;%s (matched %d, deleted %d)",
				crit.HostGroupName, res.Matched, res.Deleted)
			return nil
		})
	must("DEL_DOWNTIME_BY_START_TIME_COMMENT", "cancel every downtime matching a start time and/or comment",
		"STRING=start:;STRING=comment:", func(cmd *command.BoundCommand) error {
			crit := downtime.FilterCriteria{Comment: argString(cmd, "comment")}
			applyStartTimeFilter(&crit, argString(cmd, "start"))
			res := d.downtimeMgr.DeleteByFilter(crit, d.hostGroupMembers)
			d.logger.Log("EXTERNAL COMMAND: DEL_DOWNTIME_BY_START_TIME_COMMENT (matched %d, deleted %d)",
				res.Matched, res.Deleted)
			return nil
		})

	return c
}

// argIntValue is a small helper distinct from argULong/argBool for
// fields the wire format sends as plain integers (ack stickiness,
// passive check return codes) rather than the strict 0/1 bool grammar.
func argIntValue(cmd *command.BoundCommand, name string) int {
	v, _ := cmd.Arg(name)
	return v.IntV
}

func toggleHost(d *commandDeps, cmd *command.BoundCommand, apply func(*objects.Host), cmdName string) error {
	hostName := argString(cmd, "host")
	host := d.store.GetHost(hostName)
	if host == nil {
		return fmt.Errorf("unknown host %s", hostName)
	}
	apply(host)
	d.logger.Log("EXTERNAL COMMAND: %s;%s", cmdName, hostName)
	return nil
}

func toggleService(d *commandDeps, cmd *command.BoundCommand, apply func(*objects.Service), cmdName string) error {
	hostName, svcDesc := argService(cmd, "service")
	svc := d.store.GetService(hostName, svcDesc)
	if svc == nil {
		return fmt.Errorf("unknown service %s/%s", hostName, svcDesc)
	}
	apply(svc)
	d.logger.Log("EXTERNAL COMMAND: %s;%s;%s", cmdName, hostName, svcDesc)
	return nil
}

func setCustomVar(vars *map[string]string, name, value string) {
	if *vars == nil {
		*vars = make(map[string]string)
	}
	(*vars)[name] = value
}

func hostDowntimeFromArgs(cmd *command.BoundCommand, hostName string) *downtime.Downtime {
	return &downtime.Downtime{
		Type:        objects.HostDowntimeType,
		HostName:    hostName,
		StartTime:   argTimestamp(cmd, "start"),
		EndTime:     argTimestamp(cmd, "end"),
		Fixed:       argBool(cmd, "fixed"),
		TriggeredBy: argULong(cmd, "trigger_id"),
		Duration:    time.Duration(argULong(cmd, "duration")) * time.Second,
		Author:      argString(cmd, "author"),
		Comment:     argString(cmd, "comment"),
	}
}

func serviceDowntimeFromArgs(cmd *command.BoundCommand, hostName, svcDesc string) *downtime.Downtime {
	dt := hostDowntimeFromArgs(cmd, hostName)
	dt.Type = objects.ServiceDowntimeType
	dt.ServiceDescription = svcDesc
	return dt
}

// applyStartTimeFilter parses an optional decimal unix timestamp string,
// leaving crit untouched (matching every start time) when raw is empty
// or unparseable rather than failing the whole delete.
func applyStartTimeFilter(crit *downtime.FilterCriteria, raw string) {
	if raw == "" {
		return
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	crit.StartTime = time.Unix(sec, 0)
	crit.HasStartTime = true
}

// commandDispatcher rebinds a scheduler.Command's raw command line
// against the typed catalog and invokes its handler. It runs from
// Scheduler.OnExternalCommand, i.e. on the scheduler's own goroutine, so
// handlers mutating Host/Service/GlobalState never race the main event
// loop the way direct dispatch from extcmd's pipe-reading goroutine
// would.
type commandDispatcher struct {
	parser  *command.Parser
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func newCommandDispatcher(catalog *command.Catalog, resolver command.Resolver, logger *logging.Logger, m *metrics.Metrics) *commandDispatcher {
	return &commandDispatcher{parser: command.NewParser(catalog, resolver), logger: logger, metrics: m}
}

func (cd *commandDispatcher) Dispatch(sc scheduler.Command) {
	if sc.Raw == "" {
		return
	}
	bound, res := cd.parser.Parse(sc.Raw)
	switch res.Code {
	case command.CustomCommand:
		cd.logger.Log("EXTERNAL COMMAND (custom): %s", bound.CustomName)
		cd.metrics.RecordCommand(bound.CustomName, "custom")
	case command.OK:
		if err := bound.Descriptor.Handler(bound); err != nil {
			cd.logger.Log("EXTERNAL COMMAND %s failed: %v", bound.Descriptor.Name, err)
			cd.metrics.RecordCommand(bound.Descriptor.Name, "error")
		} else {
			cd.metrics.RecordCommand(bound.Descriptor.Name, "ok")
		}
	case command.UnknownCommand:
		// Not every Nagios command name has a descriptor here yet;
		// this is the expected outcome for those, not an error worth
		// logging on every line.
		cd.metrics.RecordCommand(sc.Name, "unknown")
	default:
		cd.logger.Log("Error parsing external command %q: %v", sc.Name, res)
		cd.metrics.RecordCommand(sc.Name, "parse_error")
	}
}
