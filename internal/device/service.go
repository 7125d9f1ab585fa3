// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package device hosts the Lifecycle Engine (§4.10): the state machine
// that drives configuration resolution, bring-up, steady-state
// operation and shutdown of a device service, generalized from the
// teacher's top-level Service type (update.go).
package device

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/autoevent"
	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/config"
	"github.com/circutor-labs/device-service-core/internal/data"
	"github.com/circutor-labs/device-service-core/internal/discovery"
	"github.com/circutor-labs/device-service-core/internal/handler"
	"github.com/circutor-labs/device-service-core/internal/metrics"
	"github.com/circutor-labs/device-service-core/internal/ping"
	"github.com/circutor-labs/device-service-core/internal/profile"
	"github.com/circutor-labs/device-service-core/internal/registry"
	"github.com/circutor-labs/device-service-core/internal/rest"
	"github.com/circutor-labs/device-service-core/internal/scheduler"
	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// State is one node of the §4.10 state machine.
type State int

const (
	StateNew State = iota
	StateConfiguring
	StateBringup
	StateLoading
	StateServing
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateConfiguring:
		return "CONFIGURING"
	case StateBringup:
		return "BRINGUP"
	case StateLoading:
		return "LOADING"
	case StateServing:
		return "SERVING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "FAILED"
	}
}

// Service is the root entity (spec.md §3). It is constructed once,
// started once, and stopped once; a failed start leaves it in
// StateFailed and it must not be started again.
type Service struct {
	Name    string
	Version string
	ConfDir string
	Profile string

	mu    sync.RWMutex
	state State

	cfg    *common.Config
	driver models.ProtocolDriver

	meta       clients.MetadataClient
	dataClient clients.DataClient
	reg        *registry.Client

	Devices  *cache.DeviceCache
	Profiles *cache.ProfileCache
	Watchers *cache.WatcherCache

	pool       *workerpool.Pool
	sched      *scheduler.Manager
	autoEvents *autoevent.Manager
	poster     *data.Poster
	server     *rest.Server
	metrics    *metrics.Metrics
	discoverer *discovery.Runner

	adminState models.AdminState
	operState  models.OperatingState
	startTime  time.Time

	stopConfig int32
	ready      int32

	deviceCommandHandler http.HandlerFunc

	asyncCh chan *models.AsyncValues
	lc      *zap.SugaredLogger
}

// New constructs an unconfigured Service. Returns a LifecycleError for
// the three constructor preconditions spec.md §7 names: a nil driver,
// an empty name, or an empty version.
func New(name, version string, driver models.ProtocolDriver, lc *zap.SugaredLogger) (*Service, *common.LifecycleError) {
	if driver == nil {
		return nil, common.NewLifecycleError(common.ErrNoDeviceImpl, "protocol driver is required")
	}
	if name == "" {
		return nil, common.NewLifecycleError(common.ErrNoDeviceName, "service name is required")
	}
	if version == "" {
		return nil, common.NewLifecycleError(common.ErrNoDeviceVersion, "service version is required")
	}

	return &Service{
		Name:       name,
		Version:    version,
		driver:     driver,
		lc:         lc,
		state:      StateNew,
		adminState: models.Unlocked,
		operState:  models.Disabled,
		Devices:    cache.NewDeviceCache(),
		Profiles:   cache.NewProfileCache(),
		Watchers:   cache.NewWatcherCache(),
		asyncCh:    make(chan *models.AsyncValues, 16),
	}, nil
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Config returns the currently effective configuration; used by the
// /api/v1/config handler and by tests.
func (s *Service) Config() *common.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Dependencies lets the bootstrap layer hand the Service its north-
// bound client implementations before Start is called; kept separate
// from New so mocks can be substituted in tests without constructing
// real HTTP clients.
type Dependencies struct {
	Metadata clients.MetadataClient
	Data     clients.DataClient

	// DeviceCommandHandler answers /api/v1/device/...; its body is a
	// driver/transport concern the core registers but does not define
	// (spec.md §1). A nil handler answers 501 Not Implemented.
	DeviceCommandHandler http.HandlerFunc
}

// Start runs §4.10 CONFIGURING through SERVING in order, blocking the
// calling goroutine for the whole sequence. A non-nil return means
// bring-up failed and the Service is now in StateFailed; it must be
// discarded, not restarted.
func (s *Service) Start(ctx context.Context, deps Dependencies, regFlag *config.RegistryFlag) *common.LifecycleError {
	s.meta = deps.Metadata
	s.dataClient = deps.Data
	s.deviceCommandHandler = deps.DeviceCommandHandler
	if s.deviceCommandHandler == nil {
		s.deviceCommandHandler = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "device command interface not configured", http.StatusNotImplemented)
		}
	}

	s.setState(StateConfiguring)
	if lerr := s.runConfiguring(ctx, regFlag); lerr != nil {
		s.setState(StateFailed)
		return lerr
	}

	s.setState(StateBringup)
	if lerr := s.runBringup(ctx); lerr != nil {
		s.setState(StateFailed)
		return lerr
	}

	s.setState(StateLoading)
	if lerr := s.runLoading(ctx); lerr != nil {
		s.setState(StateFailed)
		return lerr
	}

	if lerr := s.finishBringup(ctx); lerr != nil {
		s.setState(StateFailed)
		return lerr
	}

	s.operState = models.Enabled
	s.startTime = time.Now()
	s.setState(StateServing)
	s.lc.Infof("%s: SERVING", s.Name)
	return nil
}

func (s *Service) runConfiguring(ctx context.Context, regFlag *config.RegistryFlag) *common.LifecycleError {
	s.pool = workerpool.New(common.DefaultWorkerPoolSize)
	s.sched = scheduler.NewManager(s.lc)
	s.metrics = metrics.New(s.Name)

	in := config.Input{
		ServiceName: s.Name,
		ConfDir:     s.ConfDir,
		Registry:    regFlag,
		RetryCount:  envInt(common.EnvRegistryRetryCount, common.DefaultRegistryRetryCount),
		RetryWait:   time.Duration(envInt(common.EnvRegistryRetryWait, common.DefaultRegistryRetryWait)) * time.Second,
		WorkerPool:  s.pool,
	}

	cfg, reg, err := config.Resolve(ctx, in, s.onConfigUpdate, &s.stopConfig)
	if err != nil {
		code := common.ErrBadConfig
		if strings.Contains(err.Error(), string(common.ErrRemoteServerDown)) {
			code = common.ErrRemoteServerDown
		}
		return common.NewLifecycleError(code, err.Error())
	}
	s.cfg = cfg
	s.reg = reg

	s.poster = &data.Poster{
		Devices:       s.Devices,
		Pool:          s.pool,
		DataClient:    s.dataClient,
		DataTransform: cfg.Device.DataTransform,
		Metrics:       s.metrics,
		Logger:        s.lc,
	}
	s.autoEvents = autoevent.NewManager(s.sched, s.Devices, s.driver, s.poster, s.lc)
	s.discoverer = discovery.NewRunner(s.Watchers, s.Devices, s.meta, s.driver, s.lc)

	return nil
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}

// runBringup implements the data ping -> metadata ping -> DS reconcile
// portion of §4.10's ordering list.
func (s *Service) runBringup(ctx context.Context) *common.LifecycleError {
	dataURL, lerr := s.endpointURL(common.ClientData)
	if lerr != nil {
		return lerr
	}
	if err := probeEndpoint(ctx, dataURL, s.cfg.Service.ConnectRetries, s.cfg.Service.ConnectTimeout); err != nil {
		return common.NewLifecycleError(common.ErrRemoteServerDown, err.Error())
	}

	metaURL, lerr := s.endpointURL(common.ClientMetadata)
	if lerr != nil {
		return lerr
	}
	if err := probeEndpoint(ctx, metaURL, s.cfg.Service.ConnectRetries, s.cfg.Service.ConnectTimeout); err != nil {
		return common.NewLifecycleError(common.ErrRemoteServerDown, err.Error())
	}

	if err := s.reconcileDeviceService(ctx); err != nil {
		return common.NewLifecycleError(common.ErrMetadataOp, err.Error())
	}
	return nil
}

func (s *Service) endpointURL(name string) (string, *common.LifecycleError) {
	ci, ok := s.cfg.Clients[name]
	if !ok || ci.Host == "" || ci.Port == 0 {
		return "", common.NewLifecycleError(common.ErrBadConfig, fmt.Sprintf("missing endpoint for %s", name))
	}
	return ci.Url(), nil
}

func probeEndpoint(ctx context.Context, url string, retries, timeoutMillis int) error {
	if retries <= 0 {
		retries = common.DefaultRegistryRetryCount
	}
	wait := time.Duration(timeoutMillis) * time.Millisecond
	if wait <= 0 {
		wait = common.DefaultRegistryRetryWait * time.Second
	}
	return ping.Probe(ctx, url, retries, wait)
}

// resolvedHost is the host advertised to metadata: config.service.host
// if set, else the OS node name, per §4.10's bring-up details.
func (s *Service) resolvedHost() string {
	if s.cfg.Service.Host != "" {
		return s.cfg.Service.Host
	}
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

// reconcileDeviceService implements the §4.10 bring-up details: update
// the existing addressable on host/port drift, or create a fresh
// DeviceService when none exists yet.
func (s *Service) reconcileDeviceService(ctx context.Context) error {
	host := s.resolvedHost()
	port := s.cfg.Service.Port

	ds, err := s.meta.GetDeviceService(ctx, s.Name)
	if err != nil && !clients.IsNotFound(err) {
		return err
	}

	if err == nil && ds != nil {
		if ds.Addressable.Address != host || ds.Addressable.Port != port {
			updated := ds.Addressable
			updated.Address = host
			updated.Port = port
			if uerr := s.meta.UpdateAddressable(ctx, updated); uerr != nil {
				return uerr
			}
			s.lc.Infof("%s: updated addressable to %s:%d", s.Name, host, port)
		}
		return nil
	}

	addr := models.Addressable{
		Name:     s.Name,
		Protocol: "HTTP",
		Method:   http.MethodPost,
		Address:  host,
		Port:     port,
		Path:     common.APICallbackRoute,
		Origin:   time.Now().UnixNano() / int64(time.Millisecond),
	}
	addrID, err := s.meta.CreateAddressable(ctx, addr)
	if err != nil {
		return err
	}
	addr.Id = addrID

	newDS := models.DeviceService{
		Name:        s.Name,
		Addressable: addr,
		AdminState:  models.Unlocked,
		OperState:   models.Enabled,
		Labels:      s.cfg.Service.Labels,
		Created:     time.Now().UnixNano() / int64(time.Millisecond),
	}
	if _, err := s.meta.CreateDeviceService(ctx, newDS); err != nil {
		return err
	}
	s.lc.Infof("%s: registered new device service addressable at %s:%d", s.Name, host, port)
	return nil
}

// runLoading implements the profiles -> devices -> HTTP start ->
// callback handler -> configured devices portion of §4.10's ordering.
// All routes are registered on the router here, before it ever
// accepts a connection; the ones driver init must precede stay gated
// behind readyGate until finishBringup opens them.
func (s *Service) runLoading(ctx context.Context) *common.LifecycleError {
	if s.cfg.Device.ProfilesDir != "" {
		profiles, err := profile.LoadDir(s.cfg.Device.ProfilesDir)
		if err != nil {
			s.lc.Warnf("%s: profile directory %s unreadable: %v", s.Name, s.cfg.Device.ProfilesDir, err)
		}
		for _, p := range profiles {
			uploaded, err := profile.EnsureUploaded(ctx, s.meta, p)
			if err != nil {
				s.lc.Warnf("%s: could not upload profile %s: %v", s.Name, p.Name, err)
				continue
			}
			_ = s.Profiles.Add(uploaded)
		}
	}

	devices, err := s.meta.GetDevices(ctx, s.Name)
	if err != nil {
		return common.NewLifecycleError(common.ErrMetadataOp, fmt.Sprintf("GetDevices: %v", err))
	}
	resolved := make([]*models.Device, 0, len(devices))
	for i := range devices {
		d := devices[i]
		if d.Profile != nil {
			if cached, ok := s.Profiles.ForName(d.Profile.Name); ok {
				d.Profile = cached
			} else {
				_ = s.Profiles.Add(d.Profile)
			}
		}
		resolved = append(resolved, &d)
	}
	s.Devices.PopulateFromList(resolved)
	s.metrics.DevicesManaged.Set(float64(len(resolved)))

	s.server = rest.New(fmt.Sprintf(":%d", s.cfg.Service.Port))
	cb := &handler.CallbackHandler{
		Meta:       s.meta,
		Devices:    s.Devices,
		Profiles:   s.Profiles,
		AutoEvents: s.autoEvents,
		Logger:     s.lc,
	}
	s.server.RegisterCallback(cb.ServeHTTP)

	// Every other route is registered here too, before the router ever
	// serves a request, so HandleFunc never runs concurrently with
	// ServeHTTP on the live mux.Router. They answer 503 until
	// finishBringup flips s.ready, which is what used to be expressed
	// by registering them late.
	s.server.RegisterDevice(s.readyGate(s.deviceCommandHandler))
	s.server.RegisterDiscovery(s.readyGate(handler.NewDiscoveryHandler(s.discoverer, s.lc)))
	s.server.RegisterMetrics(s.readyGate(handler.NewMetricsHandler(s.metrics.Registry()).ServeHTTP))
	s.server.RegisterConfig(s.readyGate(handler.NewConfigHandler(s.Config)))
	s.server.RegisterVersion(s.readyGate(handler.NewVersionHandler(s.Version, common.SDKVersion)))
	s.server.RegisterPing(s.readyGate(handler.NewPingHandler(s.Version)))

	go func() {
		if err := s.server.Start(); err != nil {
			s.lc.Errorf("%s: HTTP server stopped: %v", s.Name, err)
		}
	}()

	s.processConfiguredDevices(ctx)

	return nil
}

// readyGate wraps a handler so it answers 503 until finishBringup has
// completed driver init, watcher load and scheduler start — the
// window §4.10 reserves for the callback route alone.
func (s *Service) readyGate(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&s.ready) == 0 {
			http.Error(w, "device service still starting", http.StatusServiceUnavailable)
			return
		}
		h(w, r)
	}
}

// processConfiguredDevices provisions the TOML DeviceList entries not
// already known to metadata, the §4.10 "configured devices" bring-up
// step that runs after the callback route is live.
func (s *Service) processConfiguredDevices(ctx context.Context) {
	for _, desc := range s.cfg.DeviceList {
		if h, exists := s.Devices.ForName(desc.Name); exists {
			h.Release()
			continue
		}

		prof, ok := s.Profiles.ForName(desc.Profile)
		if !ok {
			s.lc.Warnf("%s: configured device %s names unknown profile %s, skipping", s.Name, desc.Name, desc.Profile)
			continue
		}

		protocols := models.NewProtocolPropertiesList()
		for proto, props := range desc.Protocols {
			nv := models.NewNVList()
			for k, v := range props {
				nv.Append(k, v)
			}
			protocols.Append(proto, nv)
		}

		autoEvents := make([]models.AutoEvent, 0, len(desc.AutoEvents))
		for _, ae := range desc.AutoEvents {
			autoEvents = append(autoEvents, models.AutoEvent{Resource: ae.Resource, Frequency: ae.Frequency, OnChange: ae.OnChange})
		}

		d := models.Device{
			Name:       desc.Name,
			AdminState: models.Unlocked,
			OperState:  models.Enabled,
			Protocols:  protocols,
			Profile:    prof,
			AutoEvents: autoEvents,
			Labels:     desc.Labels,
		}

		id, err := s.meta.CreateDevice(ctx, d)
		if err != nil {
			s.lc.Warnf("%s: could not create configured device %s in metadata: %v", s.Name, desc.Name, err)
			continue
		}
		d.Id = id
		s.Devices.Insert(&d)
	}

	// One pass over the whole device map, not just the ones created
	// above, since GetDevices' fetch may also have returned devices
	// with auto-events that need a scheduler entry.
	for _, d := range s.Devices.All() {
		if len(d.AutoEvents) > 0 {
			s.autoEvents.RestartForDevice(d.Name)
		}
	}
}

// finishBringup implements driver init -> watchers -> scheduler start
// -> open the ready gate -> registry register. The non-callback routes
// are already registered (runLoading); opening the gate is what makes
// them answer instead of 503.
func (s *Service) finishBringup(ctx context.Context) *common.LifecycleError {
	if err := s.driver.Initialize(s.lc, s.asyncCh); err != nil {
		return common.NewLifecycleError(common.ErrDriverUnstart, err.Error())
	}
	go s.drainAsync()

	watchers, err := s.meta.GetWatchers(ctx, s.Name)
	if err != nil {
		s.lc.Warnf("%s: GetWatchers failed: %v", s.Name, err)
	} else {
		s.Watchers.Replace(watchers)
	}

	s.sched.Start()
	atomic.StoreInt32(&s.ready, 1)

	if s.reg != nil {
		interval := s.cfg.Service.CheckInterval
		if interval == "" {
			interval = "10s"
		}
		if err := s.reg.RegisterService(s.Name, s.resolvedHost(), s.cfg.Service.Port, interval); err != nil {
			return common.NewLifecycleError(common.ErrRemoteServerDown, fmt.Sprintf("register_service: %v", err))
		}
	}

	return nil
}

func (s *Service) drainAsync() {
	for av := range s.asyncCh {
		if av == nil {
			continue
		}
		resource := ""
		if len(av.CommandValues) > 0 {
			resource = av.CommandValues[0].RO.Object
		}
		s.poster.PostReadings(av.DeviceName, resource, av.CommandValues)
	}
}

// onConfigUpdate is the registry config-watch callback: it replaces
// the mutable fields of the effective configuration in place.
func (s *Service) onConfigUpdate(ctx context.Context, updated *models.NVList) {
	if atomic.LoadInt32(&s.stopConfig) != 0 {
		return
	}
	level, ok := updated.Find("Writable.LogLevel")
	if !ok {
		return
	}
	s.mu.Lock()
	s.cfg.ApplyWritable(common.WritableInfo{LogLevel: level})
	s.mu.Unlock()
	s.lc.Infof("%s: config-watch applied LogLevel=%s", s.Name, level)
}

// PostReadings is the §4.10 steady-state post_readings entry point,
// the one the device command handler and autoevents both funnel
// through.
func (s *Service) PostReadings(deviceName, resourceName string, values []*models.CommandValue) {
	s.poster.PostReadings(deviceName, resourceName, values)
}

// Stop runs the §4.10 shutdown sequence. Shutdown never fails:
// individual step errors are logged and swallowed.
func (s *Service) Stop(force bool) {
	s.setState(StateStopping)
	atomic.StoreInt32(&s.stopConfig, 1)

	if s.sched != nil {
		s.sched.Stop()
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.server.Stop(ctx); err != nil {
			s.lc.Errorf("%s: HTTP server shutdown: %v", s.Name, err)
		}
		cancel()
	}
	if err := s.driver.Stop(force); err != nil {
		s.lc.Errorf("%s: driver stop: %v", s.Name, err)
	}

	s.Devices.Clear()

	if s.reg != nil {
		if err := s.reg.DeregisterService(s.Name); err != nil {
			s.lc.Errorf("%s: deregister failed: %v", s.Name, err)
		}
	}

	if s.pool != nil {
		s.pool.Close()
	}

	s.setState(StateStopped)
	s.lc.Infof("Stopped device service %s", s.Name)
}

// RunDiscovery triggers an on-demand discovery pass, serialized by the
// discoverer's own internal mutex per spec.md §5.
func (s *Service) RunDiscovery(ctx context.Context, found []discovery.Found) error {
	return s.discoverer.Run(ctx, found)
}
