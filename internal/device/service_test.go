// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/internal/clients/mocks"
	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/data"
	"github.com/circutor-labs/device-service-core/internal/logging"
	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func pingServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split %s: %v", u.Host, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %s: %v", portStr, err)
	}
	return host, port
}

func writeConfig(t *testing.T, dir string, metaHost string, metaPort int, dataHost string, dataPort int, svcPort int) {
	t.Helper()
	content := fmt.Sprintf(`[Service]
Host = ""
Port = %d
ConnectRetries = 1
ConnectTimeout = 20
CheckInterval = "10s"
StartupMsg = "test started"

[Clients.Metadata]
Host = "%s"
Port = %d

[Clients.Data]
Host = "%s"
Port = %d

[Logging]
File = ""
EnableRemote = false

[Writable]
LogLevel = "INFO"

[Device]
ProfilesDir = ""
DataTransform = false

[Driver]
Protocol = "test"
`, svcPort, metaHost, metaPort, dataHost, dataPort)

	if err := os.WriteFile(filepath.Join(dir, "configuration.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write configuration.toml: %v", err)
	}
}

func testLogger() *zap.SugaredLogger {
	return logging.New(common.LoggingInfo{}, "INFO", nil)
}

func TestNewRejectsNilDriver(t *testing.T) {
	lc := testLogger()
	svc, lerr := New("svc", "1.0", nil, lc)
	assert.Nil(t, svc)
	if assert.NotNil(t, lerr) {
		assert.Equal(t, common.ErrNoDeviceImpl, lerr.Code)
	}
}

func TestNewRejectsEmptyName(t *testing.T) {
	lc := testLogger()
	svc, lerr := New("", "1.0", &mocks.ProtocolDriver{}, lc)
	assert.Nil(t, svc)
	if assert.NotNil(t, lerr) {
		assert.Equal(t, common.ErrNoDeviceName, lerr.Code)
	}
}

func TestNewRejectsEmptyVersion(t *testing.T) {
	lc := testLogger()
	svc, lerr := New("svc", "", &mocks.ProtocolDriver{}, lc)
	assert.Nil(t, svc)
	if assert.NotNil(t, lerr) {
		assert.Equal(t, common.ErrNoDeviceVersion, lerr.Code)
	}
}

// TestStartMinimalFileBootstrapReachesServing is scenario S1: no
// registry, a TOML with Clients for metadata and data pointing at
// stubs that return empty device and watcher lists, driver init
// succeeds. The service must reach SERVING and get_devices must be
// called exactly once.
func TestStartMinimalFileBootstrapReachesServing(t *testing.T) {
	metaSrv, dataSrv := pingServer(), pingServer()
	defer metaSrv.Close()
	defer dataSrv.Close()

	metaHost, metaPort := hostPort(t, metaSrv.URL)
	dataHost, dataPort := hostPort(t, dataSrv.URL)
	svcPort := freePort(t)

	dir := t.TempDir()
	writeConfig(t, dir, metaHost, metaPort, dataHost, dataPort, svcPort)

	meta := &mocks.MetadataClient{}
	meta.On("GetDeviceService", mock.Anything, "svc1").Return(nil, clients.ErrNotFound)
	meta.On("CreateAddressable", mock.Anything, mock.Anything).Return("addr-1", nil)
	meta.On("CreateDeviceService", mock.Anything, mock.Anything).Return("ds-1", nil)
	meta.On("GetDevices", mock.Anything, "svc1").Return([]models.Device{}, nil)
	meta.On("GetWatchers", mock.Anything, "svc1").Return([]models.ProvisionWatcher{}, nil)

	data := &mocks.DataClient{}

	driver := &mocks.ProtocolDriver{}
	driver.On("Initialize", mock.Anything, mock.Anything).Return(nil)
	driver.On("Stop", false).Return(nil)

	lc := testLogger()
	svc, lerr := New("svc1", "1.0", driver, lc)
	assert.Nil(t, lerr)
	svc.ConfDir = dir

	lerr = svc.Start(context.Background(), Dependencies{Metadata: meta, Data: data}, nil)
	assert.Nil(t, lerr)
	assert.Equal(t, StateServing, svc.State())

	time.Sleep(50 * time.Millisecond)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/ping", svcPort))
	if assert.NoError(t, err) {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "1.0", string(body))
	}

	svc.Stop(false)
	assert.Equal(t, StateStopped, svc.State())

	meta.AssertExpectations(t)
	meta.AssertNumberOfCalls(t, "GetDevices", 1)
	driver.AssertExpectations(t)
}

// TestStartUpdatesExistingAddressableOnPortDrift is scenario S3.
func TestStartUpdatesExistingAddressableOnPortDrift(t *testing.T) {
	metaSrv, dataSrv := pingServer(), pingServer()
	defer metaSrv.Close()
	defer dataSrv.Close()

	metaHost, metaPort := hostPort(t, metaSrv.URL)
	dataHost, dataPort := hostPort(t, dataSrv.URL)
	svcPort := freePort(t)

	dir := t.TempDir()
	writeConfig(t, dir, metaHost, metaPort, dataHost, dataPort, svcPort)

	existing := &models.DeviceService{
		Id:   "ds-1",
		Name: "svc1",
		Addressable: models.Addressable{
			Id:      "addr-1",
			Name:    "svc1",
			Address: "10.0.0.9",
			Port:    48080,
		},
	}

	meta := &mocks.MetadataClient{}
	meta.On("GetDeviceService", mock.Anything, "svc1").Return(existing, nil)
	meta.On("UpdateAddressable", mock.Anything, mock.MatchedBy(func(a models.Addressable) bool {
		return a.Port == svcPort
	})).Return(nil)
	meta.On("GetDevices", mock.Anything, "svc1").Return([]models.Device{}, nil)
	meta.On("GetWatchers", mock.Anything, "svc1").Return([]models.ProvisionWatcher{}, nil)

	data := &mocks.DataClient{}

	driver := &mocks.ProtocolDriver{}
	driver.On("Initialize", mock.Anything, mock.Anything).Return(nil)
	driver.On("Stop", false).Return(nil)

	lc := testLogger()
	svc, _ := New("svc1", "1.0", driver, lc)
	svc.ConfDir = dir

	lerr := svc.Start(context.Background(), Dependencies{Metadata: meta, Data: data}, nil)
	assert.Nil(t, lerr)
	assert.Equal(t, StateServing, svc.State())

	svc.Stop(false)

	meta.AssertNotCalled(t, "CreateDeviceService", mock.Anything, mock.Anything)
	meta.AssertExpectations(t)
}

// TestStartFailsWhenDataServiceDown is scenario S4: the data ping
// fails every retry, so start must fail with REMOTE_SERVER_DOWN before
// any metadata call is made and before the HTTP port opens.
func TestStartFailsWhenDataServiceDown(t *testing.T) {
	metaSrv := pingServer()
	defer metaSrv.Close()
	metaHost, metaPort := hostPort(t, metaSrv.URL)
	svcPort := freePort(t)

	dir := t.TempDir()
	writeConfig(t, dir, metaHost, metaPort, "127.0.0.1", freePort(t), svcPort)

	meta := &mocks.MetadataClient{}
	data := &mocks.DataClient{}
	driver := &mocks.ProtocolDriver{}

	lc := testLogger()
	svc, _ := New("svc1", "1.0", driver, lc)
	svc.ConfDir = dir

	lerr := svc.Start(context.Background(), Dependencies{Metadata: meta, Data: data}, nil)
	if assert.NotNil(t, lerr) {
		assert.Equal(t, common.ErrRemoteServerDown, lerr.Code)
	}
	assert.Equal(t, StateFailed, svc.State())
	assert.Nil(t, svc.server)

	meta.AssertExpectations(t)
}

// TestStartFailsWhenDriverRejectsInit is scenario S5: driver init
// fails, so start must fail with DRIVER_UNSTART with every route but
// the callback route still answering 503 (registered, but gated until
// driver init succeeds).
func TestStartFailsWhenDriverRejectsInit(t *testing.T) {
	metaSrv, dataSrv := pingServer(), pingServer()
	defer metaSrv.Close()
	defer dataSrv.Close()

	metaHost, metaPort := hostPort(t, metaSrv.URL)
	dataHost, dataPort := hostPort(t, dataSrv.URL)
	svcPort := freePort(t)

	dir := t.TempDir()
	writeConfig(t, dir, metaHost, metaPort, dataHost, dataPort, svcPort)

	meta := &mocks.MetadataClient{}
	meta.On("GetDeviceService", mock.Anything, "svc1").Return(nil, clients.ErrNotFound)
	meta.On("CreateAddressable", mock.Anything, mock.Anything).Return("addr-1", nil)
	meta.On("CreateDeviceService", mock.Anything, mock.Anything).Return("ds-1", nil)
	meta.On("GetDevices", mock.Anything, "svc1").Return([]models.Device{}, nil)

	data := &mocks.DataClient{}

	driver := &mocks.ProtocolDriver{}
	driver.On("Initialize", mock.Anything, mock.Anything).Return(fmt.Errorf("board not responding"))

	lc := testLogger()
	svc, _ := New("svc1", "1.0", driver, lc)
	svc.ConfDir = dir

	lerr := svc.Start(context.Background(), Dependencies{Metadata: meta, Data: data}, nil)
	if assert.NotNil(t, lerr) {
		assert.Equal(t, common.ErrDriverUnstart, lerr.Code)
	}
	assert.Equal(t, StateFailed, svc.State())

	time.Sleep(50 * time.Millisecond)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/ping", svcPort))
	if assert.NoError(t, err) {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	}

	meta.AssertNotCalled(t, "GetWatchers", mock.Anything, mock.Anything)
}

// TestPostReadingsIgnoresUnknownDevice is scenario S6: posting for a
// device name absent from the map logs and returns without enqueuing
// any work.
func TestPostReadingsIgnoresUnknownDevice(t *testing.T) {
	driver := &mocks.ProtocolDriver{}
	lc := testLogger()
	svc, _ := New("svc1", "1.0", driver, lc)

	pool := workerpool.New(1)
	defer pool.Close()
	svc.poster = &data.Poster{
		Devices: svc.Devices,
		Pool:    pool,
		Logger:  lc,
	}

	assert.NotPanics(t, func() {
		svc.PostReadings("ghost", "r", nil)
	})

	pool.Drain()
}
