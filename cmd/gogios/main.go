package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/oceanplexian/naemon/internal/api"
	"github.com/oceanplexian/naemon/internal/api/livestatus"
	"github.com/oceanplexian/naemon/internal/checker"
	"github.com/oceanplexian/naemon/internal/config"
	"github.com/oceanplexian/naemon/internal/downtime"
	"github.com/oceanplexian/naemon/internal/extcmd"
	"github.com/oceanplexian/naemon/internal/logging"
	"github.com/oceanplexian/naemon/internal/macros"
	"github.com/oceanplexian/naemon/internal/metrics"
	"github.com/oceanplexian/naemon/internal/notify"
	"github.com/oceanplexian/naemon/internal/objects"
	"github.com/oceanplexian/naemon/internal/scheduler"
	"github.com/oceanplexian/naemon/internal/status"
)

const version = "1.0.0"

func main() {
	var verifyCount int
	var daemonMode, testScheduling, enableTimingPoint bool

	root := &cobra.Command{
		Use:     "gogios <main_config_file>",
		Short:   "Gogios monitoring daemon",
		Version: version,
		Args:    cobra.ExactArgs(1),
		// Nagios admins script around the classic single-binary CLI, so
		// the flag surface (including -v -v / -vv for extra verbosity)
		// is kept byte-for-byte instead of adopting cobra's subcommand
		// conventions.
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := args[0]
			switch {
			case verifyCount > 0:
				runVerify(configFile, verifyCount)
			case testScheduling:
				runSchedulingTest(configFile)
			default:
				_ = enableTimingPoint // reserved for future use
				runDaemon(configFile, daemonMode)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().CountVarP(&verifyCount, "verify-config", "v", "verify all configuration data (-v -v for more info)")
	root.Flags().BoolVarP(&testScheduling, "test-scheduling", "s", false,
		"show projected/recommended check scheduling and other diagnostic info based on the current configuration")
	root.Flags().BoolVarP(&enableTimingPoint, "enable-timing-point", "T", false, "enable timed commentary on initialization")
	root.Flags().BoolVarP(&daemonMode, "daemon", "d", false, "start Gogios in daemon mode instead of as a foreground process")
	root.CompletionOptions.DisableDefaultCmd = true

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runVerify(configFile string, verbosity int) {
	fmt.Printf("\nGogios %s\n", version)
	fmt.Println("Copyright (c) 2024-present Gogios Contributors")
	fmt.Print("License: MIT\n\n")
	fmt.Printf("Reading configuration data from %s...\n\n", configFile)

	result, errs := config.VerifyConfig(configFile)
	if len(errs) > 0 {
		fmt.Println()
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		fmt.Printf("\nTotal Errors: %d\n", len(errs))
		os.Exit(1)
	}

	store := result.Store
	fmt.Println("Running pre-flight check on configuration data...")
	fmt.Println()

	if verbosity >= 2 {
		// -vv: print detailed object listing
		fmt.Println("Checking commands...")
		for _, c := range store.Commands {
			fmt.Printf("\tChecked command '%s'\n", c.Name)
		}
		fmt.Println("Checking contacts...")
		for _, c := range store.Contacts {
			fmt.Printf("\tChecked contact '%s'\n", c.Name)
		}
		fmt.Println("Checking contact groups...")
		for _, cg := range store.ContactGroups {
			fmt.Printf("\tChecked contact group '%s'\n", cg.Name)
		}
		fmt.Println("Checking hosts...")
		for _, h := range store.Hosts {
			fmt.Printf("\tChecked host '%s'\n", h.Name)
		}
		fmt.Println("Checking host groups...")
		for _, hg := range store.HostGroups {
			fmt.Printf("\tChecked host group '%s'\n", hg.Name)
		}
		fmt.Println("Checking services...")
		for _, svc := range store.Services {
			hostName := ""
			if svc.Host != nil {
				hostName = svc.Host.Name
			}
			fmt.Printf("\tChecked service '%s' on host '%s'\n", svc.Description, hostName)
		}
		fmt.Println("Checking service groups...")
		for _, sg := range store.ServiceGroups {
			fmt.Printf("\tChecked service group '%s'\n", sg.Name)
		}
		fmt.Println("Checking timeperiods...")
		for _, tp := range store.Timeperiods {
			fmt.Printf("\tChecked time period '%s'\n", tp.Name)
		}
		fmt.Println()
	}

	fmt.Printf("Checked %d commands.\n", len(store.Commands))
	fmt.Printf("Checked %d contacts.\n", len(store.Contacts))
	fmt.Printf("Checked %d contact groups.\n", len(store.ContactGroups))
	fmt.Printf("Checked %d hosts.\n", len(store.Hosts))
	fmt.Printf("Checked %d host groups.\n", len(store.HostGroups))
	fmt.Printf("Checked %d services.\n", len(store.Services))
	fmt.Printf("Checked %d service groups.\n", len(store.ServiceGroups))
	fmt.Printf("Checked %d timeperiods.\n", len(store.Timeperiods))
	fmt.Printf("Checked %d host dependencies.\n", len(store.HostDependencies))
	fmt.Printf("Checked %d service dependencies.\n", len(store.ServiceDependencies))
	fmt.Printf("Checked %d host escalations.\n", len(store.HostEscalations))
	fmt.Printf("Checked %d service escalations.\n", len(store.ServiceEscalations))
	fmt.Println()
	fmt.Println("Total Warnings: 0")
	fmt.Println("Total Errors:   0")
	fmt.Println()
	fmt.Println("Things look okay - No serious problems were detected during the pre-flight check")
	os.Exit(0)
}

func runSchedulingTest(configFile string) {
	fmt.Printf("\nGogios %s\n", version)
	fmt.Print("Copyright (c) 2024-present Gogios Contributors\n\n")

	result, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	store := result.Store
	mainCfg := result.MainCfg

	cfg := objects.DefaultConfig()
	cfg.IntervalLength = mainCfg.IntervalLength
	if cfg.IntervalLength <= 0 {
		cfg.IntervalLength = 60
	}
	cfg.MaxParallelServiceChecks = mainCfg.MaxConcurrentChecks
	cfg.MaxServiceCheckSpread = mainCfg.MaxServiceCheckSpread
	cfg.MaxHostCheckSpread = mainCfg.MaxHostCheckSpread

	totalServices := len(store.Services)
	totalHosts := len(store.Hosts)

	// Calculate ICD
	var serviceICD, hostICD float64
	if totalServices > 0 {
		avgInterval := 0.0
		for _, svc := range store.Services {
			avgInterval += svc.CheckInterval
		}
		avgInterval = avgInterval / float64(totalServices) * float64(cfg.IntervalLength)
		serviceICD = avgInterval / float64(totalServices)
	}
	if totalHosts > 0 {
		avgInterval := 0.0
		for _, h := range store.Hosts {
			avgInterval += h.CheckInterval
		}
		avgInterval = avgInterval / float64(totalHosts) * float64(cfg.IntervalLength)
		hostICD = avgInterval / float64(totalHosts)
	}

	// Interleave factor
	interleaveFactor := totalServices / totalHosts
	if interleaveFactor < 1 {
		interleaveFactor = 1
	}

	fmt.Println("Projected scheduling information for host and service checks")
	fmt.Println("is listed below.  This information assumes that you are going")
	fmt.Print("to start running Gogios with your current config files.\n\n")

	fmt.Printf("HOST SCHEDULING INFORMATION\n")
	fmt.Printf("--------------------------\n")
	fmt.Printf("Total hosts:                        %d\n", totalHosts)
	fmt.Printf("Host inter-check delay:             %.2f sec\n", hostICD)
	fmt.Printf("Max host check spread:              %d min\n", cfg.MaxHostCheckSpread)
	fmt.Println()

	fmt.Printf("SERVICE SCHEDULING INFORMATION\n")
	fmt.Printf("------------------------------\n")
	fmt.Printf("Total services:                     %d\n", totalServices)
	fmt.Printf("Service inter-check delay:          %.2f sec\n", serviceICD)
	fmt.Printf("Inter-check delay method:           SMART\n")
	fmt.Printf("Service interleave factor:          %d\n", interleaveFactor)
	fmt.Printf("Max service check spread:           %d min\n", cfg.MaxServiceCheckSpread)
	fmt.Println()

	fmt.Printf("CHECK PROCESSING INFORMATION\n")
	fmt.Printf("----------------------------\n")
	fmt.Printf("Max concurrent service checks:      ")
	if cfg.MaxParallelServiceChecks <= 0 {
		fmt.Printf("Unlimited\n")
	} else {
		fmt.Printf("%d\n", cfg.MaxParallelServiceChecks)
	}
	fmt.Println()
}

func runDaemon(configFile string, daemonMode bool) {
	if !daemonMode {
		fmt.Printf("\nGogios %s\n", version)
		fmt.Println("Copyright (c) 2024-present Gogios Contributors")
		fmt.Print("License: MIT\n\n")
	}

	// Container-aware GOMAXPROCS/GOMEMLIMIT: under cgroup limits the Go
	// runtime otherwise sees the host's full CPU/memory count and
	// oversubscribes worker pools and GC targets.
	if undo, err := maxprocs.Set(maxprocs.Logger(log.Printf)); err != nil {
		log.Printf("automaxprocs: %v", err)
	} else {
		defer undo()
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithProvider(memlimit.FromCgroup),
	); err != nil {
		log.Printf("automemlimit: %v", err)
	}

	// --- Load configuration ---
	result, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	mainCfg := result.MainCfg
	store := result.Store

	// --- Build runtime Config from MainConfig ---
	cfg := objects.DefaultConfig()
	cfg.IntervalLength = mainCfg.IntervalLength
	if cfg.IntervalLength <= 0 {
		cfg.IntervalLength = 60
	}
	cfg.ServiceCheckTimeout = mainCfg.ServiceCheckTimeout
	cfg.HostCheckTimeout = mainCfg.HostCheckTimeout
	cfg.MaxParallelServiceChecks = mainCfg.MaxConcurrentChecks
	cfg.ExecuteServiceChecks = mainCfg.ExecuteServiceChecks
	cfg.ExecuteHostChecks = mainCfg.ExecuteHostChecks
	cfg.CheckServiceFreshness = mainCfg.CheckServiceFreshness
	cfg.CheckHostFreshness = mainCfg.CheckHostFreshness
	cfg.ServiceFreshnessCheckInterval = mainCfg.ServiceFreshnessCheckInterval
	cfg.HostFreshnessCheckInterval = mainCfg.HostFreshnessCheckInterval
	cfg.StatusUpdateInterval = mainCfg.StatusUpdateInterval
	cfg.RetentionUpdateInterval = mainCfg.RetentionUpdateInterval
	cfg.AdditionalFreshnessLatency = mainCfg.AdditionalFreshnessLatency
	cfg.UseAggressiveHostChecking = mainCfg.UseAggressiveHostChecking
	cfg.TranslatePassiveHostChecks = mainCfg.TranslatePassiveHostChecks
	cfg.MaxServiceCheckSpread = mainCfg.MaxServiceCheckSpread
	cfg.MaxHostCheckSpread = mainCfg.MaxHostCheckSpread
	cfg.CheckReaperInterval = mainCfg.CheckResultReaperFrequency
	cfg.UserMacros = result.UserMacros

	// Map timeout state
	switch mainCfg.ServiceCheckTimeoutState {
	case 'o':
		cfg.ServiceCheckTimeoutState = objects.ServiceOK
	case 'w':
		cfg.ServiceCheckTimeoutState = objects.ServiceWarning
	case 'u':
		cfg.ServiceCheckTimeoutState = objects.ServiceUnknown
	default:
		cfg.ServiceCheckTimeoutState = objects.ServiceCritical
	}

	// Map log rotation method
	logRotation := objects.LogRotationNone
	switch mainCfg.LogRotationMethod {
	case 'h':
		logRotation = objects.LogRotationHourly
	case 'd':
		logRotation = objects.LogRotationDaily
	case 'w':
		logRotation = objects.LogRotationWeekly
	case 'm':
		logRotation = objects.LogRotationMonthly
	}

	// --- Initialize global state ---
	globalState := &objects.GlobalState{
		EnableNotifications:        mainCfg.EnableNotifications,
		ExecuteServiceChecks:       mainCfg.ExecuteServiceChecks,
		ExecuteHostChecks:          mainCfg.ExecuteHostChecks,
		AcceptPassiveServiceChecks: mainCfg.AcceptPassiveServiceChecks,
		AcceptPassiveHostChecks:    mainCfg.AcceptPassiveHostChecks,
		EnableEventHandlers:        mainCfg.EnableEventHandlers,
		ObsessOverServices:         mainCfg.ObsessOverServices,
		ObsessOverHosts:            mainCfg.ObsessOverHosts,
		CheckServiceFreshness:      mainCfg.CheckServiceFreshness,
		CheckHostFreshness:         mainCfg.CheckHostFreshness,
		EnableFlapDetection:        mainCfg.EnableFlapDetection,
		LowServiceFlapThreshold:    mainCfg.LowServiceFlapThreshold,
		HighServiceFlapThreshold:   mainCfg.HighServiceFlapThreshold,
		LowHostFlapThreshold:       mainCfg.LowHostFlapThreshold,
		HighHostFlapThreshold:      mainCfg.HighHostFlapThreshold,
		ProcessPerformanceData:     mainCfg.ProcessPerformanceData,
		GlobalHostEventHandler:     mainCfg.GlobalHostEventHandler,
		GlobalServiceEventHandler:  mainCfg.GlobalServiceEventHandler,
		ProgramStart:               time.Now(),
		PID:                        os.Getpid(),
		DaemonMode:                 true,
		IntervalLength:             mainCfg.IntervalLength,
		SoftStateDependencies:      mainCfg.SoftStateDependencies,
		LogNotifications:           mainCfg.LogNotifications,
		LogServiceRetries:          mainCfg.LogServiceRetries,
		LogEventHandlers:           mainCfg.LogEventHandlers,
		LogExternalCommands:        mainCfg.LogExternalCommands,
		NextCommentID:              1,
		NextDowntimeID:             1,
		NextEventID:                1,
		NextProblemID:              1,
		NextNotificationID:         1,
	}

	// --- Ensure var directories exist ---
	for _, dir := range []string{
		filepath.Dir(mainCfg.LogFile),
		filepath.Dir(mainCfg.StatusFile),
		filepath.Dir(mainCfg.StateRetentionFile),
		mainCfg.LogArchivePath,
		mainCfg.CheckResultPath,
		filepath.Dir(mainCfg.CommandFile),
	} {
		if dir != "" {
			os.MkdirAll(dir, 0755)
		}
	}

	// --- Initialize logger ---
	nagLogger, err := logging.NewLogger(mainCfg.LogFile, mainCfg.LogArchivePath, logRotation, mainCfg.UseSyslog, globalState)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer nagLogger.Close()

	// In foreground mode, echo all log output to stdout
	if !daemonMode {
		nagLogger.SetStdout(true)
	}

	nagLogger.Log("Gogios %s starting... (PID=%d)", version, os.Getpid())
	nagLogger.Log("Local time is %s", time.Now().Format("Mon Jan 02 15:04:05 MST 2006"))
	nagLogger.Log("LOG VERSION: 2.0")
	nagLogger.Log("Finished loading configuration with %d hosts, %d services",
		len(store.Hosts), len(store.Services))

	// --- Initialize subsystems ---

	// Comment and downtime managers
	commentMgr := downtime.NewCommentManager(1)
	downtimeMgr := downtime.NewDowntimeManager(1, commentMgr, store)
	downtimeMgr.SetLogger(nagLogger)

	// Macro expander
	macroExpander := &macros.Expander{
		Cfg:        cfg,
		HostLookup: store.GetHost,
		SvcLookup:  store.GetService,
	}

	// Notification engine
	notifEngine := notify.NewNotificationEngine(globalState, store, nagLogger)

	// Prometheus metrics. A fresh registry per run keeps repeated
	// runDaemon calls (as happen in tests) from panicking on duplicate
	// metric registration.
	metricsRegistry := prometheus.NewRegistry()
	gogiosMetrics := metrics.New(metricsRegistry)
	notifEngine.Metrics = gogiosMetrics

	// Status writer
	statusWriter := &status.StatusWriter{
		Path:      mainCfg.StatusFile,
		TempDir:   mainCfg.TempPath,
		Store:     store,
		Global:    globalState,
		Comments:  commentMgr,
		Downtimes: downtimeMgr,
		Version:   "1.0.0",
	}

	// Retention writer/reader
	retentionWriter := &status.RetentionWriter{
		Path:      mainCfg.StateRetentionFile,
		TempDir:   mainCfg.TempPath,
		Store:     store,
		Global:    globalState,
		Comments:  commentMgr,
		Downtimes: downtimeMgr,
		Version:   "1.0.0",
	}

	// Load retention data if it exists
	if mainCfg.RetainStateInformation {
		if _, err := os.Stat(mainCfg.StateRetentionFile); err == nil {
			retReader := &status.RetentionReader{
				Store:     store,
				Global:    globalState,
				Comments:  commentMgr,
				Downtimes: downtimeMgr,
			}
			if err := retReader.Read(mainCfg.StateRetentionFile); err != nil {
				nagLogger.Log("Warning: Failed to read retention data: %v", err)
			} else {
				nagLogger.Log("Successfully read retention data from %s", mainCfg.StateRetentionFile)
			}
		}
	}

	// --- Check executor ---
	resultCh := make(chan *objects.CheckResult, 1024)
	executor := checker.NewExecutor(mainCfg.MaxConcurrentChecks, resultCh)

	// Notification commands share the check executor's Worker RPC pool
	// rather than spinning up a second fleet of shell workers.
	notifEngine.CmdExecutor.SetPool(executor.Pool())

	// --- Flap engine ---
	// Shared by both result handlers so a service and a host flapping at
	// the same time don't fight over flapping-comment bookkeeping.
	flapEngine := checker.NewFlapEngine(commentMgr)
	flapEngine.Logger = nagLogger.Log
	flapEngine.OnServiceNotification = func(svc *objects.Service, notifType int) {
		notifEngine.ServiceNotification(svc, notifType, "", "", 0)
	}
	flapEngine.OnHostNotification = func(h *objects.Host, notifType int) {
		notifEngine.HostNotification(h, notifType, "", "", 0)
	}

	// --- Service result handler ---
	svcHandler := &checker.ServiceResultHandler{
		Cfg:        cfg,
		GlobalState: globalState,
		HostLookup: store.GetHost,
		FlapEngine: flapEngine,
		OnNotification: func(svc *objects.Service, notifType int) {
			notifEngine.ServiceNotification(svc, notifType, "", "", 0)
		},
		OnStateChange: func(svc *objects.Service, oldState, newState int, hardChange bool) {
			stateStr := objects.ServiceStateName(newState)
			typeStr := objects.StateTypeName(svc.StateType)
			nagLogger.Log("SERVICE ALERT: %s;%s;%s;%s;%d;%s",
				svc.Host.Name, svc.Description, stateStr, typeStr,
				svc.CurrentAttempt, svc.PluginOutput)
		},
	}

	// --- Host result handler ---
	hostHandler := &checker.HostResultHandler{
		Cfg:        cfg,
		GlobalState: globalState,
		FlapEngine: flapEngine,
		OnNotification: func(h *objects.Host, notifType int) {
			notifEngine.HostNotification(h, notifType, "", "", 0)
		},
		OnStateChange: func(h *objects.Host, oldState, newState int, hardChange bool) {
			stateStr := objects.HostStateName(newState)
			typeStr := objects.StateTypeName(h.StateType)
			nagLogger.Log("HOST ALERT: %s;%s;%s;%d;%s",
				h.Name, stateStr, typeStr, h.CurrentAttempt, h.PluginOutput)
		},
	}

	// --- Scheduler ---
	sched := scheduler.New(cfg, store.Hosts, store.Services, resultCh)

	// Downtime start/expire now fire off the scheduler's own event queue
	// instead of a per-downtime goroutine+time.Sleep timer.
	downtimeMgr.SetScheduler(sched)
	sched.OnDowntimeStart = downtimeMgr.OnScheduledStart
	sched.OnDowntimeExpire = downtimeMgr.OnScheduledExpire

	// Wire up scheduler callbacks
	sched.OnRunServiceCheck = func(svc *objects.Service, options int) {
		if svc.CheckCommand == nil {
			return
		}
		var args []string
		if svc.CheckCommandArgs != "" {
			args = strings.Split(svc.CheckCommandArgs, "!")
		}
		rawCmd := svc.CheckCommand.CommandLine
		expanded := macroExpander.Expand(rawCmd, svc.Host, svc, args)
		timeout := time.Duration(cfg.ServiceCheckTimeout) * time.Second
		executor.Submit(svc.Host.Name, svc.Description, expanded, timeout, options, objects.CheckTypeActive, svc.Latency)
	}

	sched.OnRunHostCheck = func(host *objects.Host, options int) {
		if host.CheckCommand == nil {
			// Hosts without check commands are assumed UP
			resultCh <- &objects.CheckResult{
				HostName:      host.Name,
				CheckType:     objects.CheckTypeActive,
				CheckOptions:  options,
				ReturnCode:    0,
				Output:        "(No check command defined - host assumed UP)",
				StartTime:     time.Now(),
				FinishTime:    time.Now(),
				ExitedOK:      true,
				Latency:       host.Latency,
			}
			return
		}
		checker.AdjustHostCheckAttempt(host)
		var args []string
		if host.CheckCommandArgs != "" {
			args = strings.Split(host.CheckCommandArgs, "!")
		}
		rawCmd := host.CheckCommand.CommandLine
		expanded := macroExpander.Expand(rawCmd, host, nil, args)
		timeout := time.Duration(cfg.HostCheckTimeout) * time.Second
		executor.Submit(host.Name, "", expanded, timeout, options, objects.CheckTypeActive, host.Latency)
	}

	sched.OnProcessResult = func(cr *objects.CheckResult) {
		if cr.ServiceDescription != "" {
			// Service check result
			svc := store.GetService(cr.HostName, cr.ServiceDescription)
			if svc == nil {
				return
			}
			svcHandler.HandleResult(svc, cr)
			sched.DecrementRunningServiceChecks()
			gogiosMetrics.RecordCheck("service", objects.ServiceStateName(svc.CurrentState), cr.ExecutionTime)

			// Check if a flexible downtime should start
			downtimeMgr.CheckPendingFlexServiceDowntime(cr.HostName, cr.ServiceDescription, svc.CurrentState)

			// Reschedule service check
			sched.AddEvent(&scheduler.Event{
				Type:               scheduler.EventServiceCheck,
				RunTime:            svc.NextCheck,
				HostName:           cr.HostName,
				ServiceDescription: cr.ServiceDescription,
			})
		} else {
			// Host check result
			host := store.GetHost(cr.HostName)
			if host == nil {
				return
			}
			hostHandler.HandleResult(host, cr)
			gogiosMetrics.RecordCheck("host", objects.HostStateName(host.CurrentState), cr.ExecutionTime)

			// Check if a flexible downtime should start
			downtimeMgr.CheckPendingFlexHostDowntime(cr.HostName, host.CurrentState)

			// Reschedule host check
			sched.AddEvent(&scheduler.Event{
				Type:     scheduler.EventHostCheck,
				RunTime:  host.NextCheck,
				HostName: cr.HostName,
			})
		}
	}

	sched.OnStatusSave = func() {
		if err := statusWriter.Write(); err != nil {
			nagLogger.Log("Error writing status data: %v", err)
		}
		gogiosMetrics.SetActiveDowntimes(len(downtimeMgr.All()))
		gogiosMetrics.SetQueuedEvents(sched.QueueLen())
	}

	sched.OnRetentionSave = func() {
		if mainCfg.RetainStateInformation {
			if err := retentionWriter.Write(); err != nil {
				nagLogger.Log("Error saving retention data: %v", err)
			} else {
				nagLogger.Log("Auto-save of retention data completed successfully.")
			}
		}
	}

	sched.OnLogRotation = func() {
		if err := nagLogger.Rotate(); err != nil {
			log.Printf("Error rotating log: %v", err)
		}
	}

	// --- External command processor ---
	// Every command — FIFO-sourced or Livestatus-injected via
	// cmdProcessor.Dispatch — is drained from one channel onto
	// sched.commandCh and handled by commandDispatcher.Dispatch inside
	// Scheduler.Run's own goroutine. Handlers therefore never race the
	// scheduler's check/result processing over shared Host/Service state,
	// unlike the old design where extcmd's own readLoop goroutine invoked
	// handlers directly.
	resolver := &objectResolver{store: store}
	catalog := buildCommandCatalog(&commandDeps{
		store:       store,
		cfg:         cfg,
		gs:          globalState,
		sched:       sched,
		notifEngine: notifEngine,
		commentMgr:  commentMgr,
		downtimeMgr: downtimeMgr,
		logger:      nagLogger,
		resultCh:    resultCh,
	})
	dispatcher := newCommandDispatcher(catalog, resolver, nagLogger, gogiosMetrics)
	sched.OnExternalCommand = dispatcher.Dispatch

	var cmdProcessor *extcmd.Processor
	if mainCfg.CheckExternalCommands && mainCfg.CommandFile != "" {
		cmdProcessor = extcmd.NewProcessor(mainCfg.CommandFile, 256)
		cmdProcessor.SetLogger(func(format string, args ...interface{}) {
			nagLogger.Log(format, args...)
		})

		if err := cmdProcessor.Start(); err != nil {
			nagLogger.Log("Warning: Failed to start command processor: %v", err)
		} else {
			nagLogger.Log("External command processor started on %s", mainCfg.CommandFile)
			// Drain commands into scheduler
			go func() {
				for cmd := range cmdProcessor.CommandChan() {
					sched.SendCommand(scheduler.Command{
						Name: cmd.Name,
						Args: cmd.Args,
						Raw:  cmd.Raw,
					})
				}
			}()
		}
	}

	// --- Prometheus metrics endpoint ---
	var metricsServer *metrics.Server
	if mainCfg.MetricsListen != "" {
		metricsServer = metrics.NewServer(mainCfg.MetricsListen, metricsRegistry)
		metricsServer.Start(func(err error) {
			nagLogger.Log("Warning: metrics server failed: %v", err)
		})
		nagLogger.Log("Metrics listening on http://%s/metrics", mainCfg.MetricsListen)
	}

	// --- Livestatus API server ---
	var livestatusServer *livestatus.Server
	if mainCfg.QuerySocket != "" || mainCfg.LivestatusTCP != "" {
		livestatusServer = livestatus.New(mainCfg.QuerySocket, mainCfg.LivestatusTCP)
		apiState := &api.StateProvider{
			Store:     store,
			Global:    globalState,
			Comments:  commentMgr,
			Downtimes: downtimeMgr,
			Logger:    nagLogger,
			LogFile:   mainCfg.LogFile,
		}
		cmdSink := api.CommandSink(func(name string, args []string) {
			if cmdProcessor != nil {
				cmdProcessor.Dispatch(name, args)
			}
		})
		if err := livestatusServer.Start(apiState, cmdSink); err != nil {
			nagLogger.Log("Warning: Failed to start Livestatus server: %v", err)
		} else {
			if mainCfg.QuerySocket != "" {
				nagLogger.Log("Livestatus API listening on unix:%s", mainCfg.QuerySocket)
			}
			if mainCfg.LivestatusTCP != "" {
				nagLogger.Log("Livestatus API listening on tcp:%s", mainCfg.LivestatusTCP)
			}
		}
	}

	// --- Initialize scheduling ---
	nagLogger.Log("Scheduling initial checks...")
	sched.Init(store.Hosts, store.Services)
	nagLogger.Log("Scheduled %d events in queue", sched.QueueLen())

	// Write initial status
	if err := statusWriter.Write(); err != nil {
		nagLogger.Log("Warning: Failed to write initial status: %v", err)
	}

	// Log initial states if configured
	if mainCfg.LogInitialStates {
		for _, h := range store.Hosts {
			nagLogger.Log("INITIAL HOST STATE: %s;%s;%s;%d;%s",
				h.Name, objects.HostStateName(h.CurrentState),
				objects.StateTypeName(h.StateType), h.CurrentAttempt, h.PluginOutput)
		}
		for _, svc := range store.Services {
			nagLogger.Log("INITIAL SERVICE STATE: %s;%s;%s;%s;%d;%s",
				svc.Host.Name, svc.Description,
				objects.ServiceStateName(svc.CurrentState),
				objects.StateTypeName(svc.StateType), svc.CurrentAttempt, svc.PluginOutput)
		}
	}

	nagLogger.Log("Gogios ready. Entering main event loop.")

	// --- Config file watch ---
	// Editors typically replace a config file by rename rather than
	// write-in-place, so the watch is on the containing directory with
	// the target filename matched explicitly.
	if watcher, err := fsnotify.NewWatcher(); err != nil {
		nagLogger.Log("Warning: Failed to start config watcher: %v", err)
	} else {
		defer watcher.Close()
		absConfig, err := filepath.Abs(configFile)
		if err != nil {
			absConfig = configFile
		}
		if err := watcher.Add(filepath.Dir(absConfig)); err != nil {
			nagLogger.Log("Warning: Failed to watch config directory: %v", err)
		} else {
			go func() {
				for {
					select {
					case ev, ok := <-watcher.Events:
						if !ok {
							return
						}
						if filepath.Clean(ev.Name) == absConfig && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
							nagLogger.Log("Config file %s changed on disk, send SIGHUP to reload", absConfig)
						}
					case err, ok := <-watcher.Errors:
						if !ok {
							return
						}
						nagLogger.Log("Config watcher error: %v", err)
					}
				}
			}()
		}
	}

	// --- Signal handling ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				nagLogger.Log("Caught %s, shutting down...", sig)
				sched.Stop()
				return
			case syscall.SIGHUP:
				nagLogger.Log("Caught SIGHUP, reloading not yet implemented")
			}
		}
	}()

	// --- Run main event loop (blocks until Stop) ---
	sched.Run()

	// --- Shutdown ---
	nagLogger.Log("Shutting down...")

	if livestatusServer != nil {
		livestatusServer.Stop()
	}

	if metricsServer != nil {
		metricsServer.Stop()
	}

	if cmdProcessor != nil {
		cmdProcessor.Stop()
	}

	// Save final retention data
	if mainCfg.RetainStateInformation {
		if err := retentionWriter.Write(); err != nil {
			nagLogger.Log("Error saving final retention data: %v", err)
		} else {
			nagLogger.Log("Retention data saved.")
		}
	}

	// Write final status
	statusWriter.Write()

	nagLogger.Log("Successfully shutdown... (PID=%d)", os.Getpid())
}

