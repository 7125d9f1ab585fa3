// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/clients/mocks"
	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/discovery"
	"github.com/circutor-labs/device-service-core/internal/logging"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

func TestPingHandlerReturnsPlainTextVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, common.APIPingRoute, nil)
	rec := httptest.NewRecorder()

	NewPingHandler("1.2.3")(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", rec.Body.String())
}

func TestVersionHandlerReturnsServiceAndSdkVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, common.APIVersionRoute, nil)
	rec := httptest.NewRecorder()

	NewVersionHandler("1.2.3", common.SDKVersion)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body VersionResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, common.SDKVersion, body.SdkVersion)
}

func TestConfigHandlerReturnsCurrentEffectiveConfig(t *testing.T) {
	cfg := &common.Config{Service: common.ServiceInfo{Port: 49990}}
	req := httptest.NewRequest(http.MethodGet, common.APIConfigRoute, nil)
	rec := httptest.NewRecorder()

	NewConfigHandler(func() *common.Config { return cfg })(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got common.Config
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 49990, got.Service.Port)
}

func TestDiscoveryHandlerAcceptsAndRunsInBackground(t *testing.T) {
	meta := &fakeMetadataNoop{}
	driver := &mocks.ProtocolDriver{}
	driver.On("Discover").Return(nil)
	runner := discovery.NewRunner(cache.NewWatcherCache(), cache.NewDeviceCache(), meta, driver, logging.New(common.LoggingInfo{}, "INFO", nil))

	req := httptest.NewRequest(http.MethodPost, common.APIDiscoveryRoute, bytes.NewReader(nil))
	rec := httptest.NewRecorder()

	NewDiscoveryHandler(runner, logging.New(common.LoggingInfo{}, "INFO", nil))(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestDiscoveryHandlerRejectsMalformedBody(t *testing.T) {
	meta := &fakeMetadataNoop{}
	driver := &mocks.ProtocolDriver{}
	runner := discovery.NewRunner(cache.NewWatcherCache(), cache.NewDeviceCache(), meta, driver, logging.New(common.LoggingInfo{}, "INFO", nil))

	req := httptest.NewRequest(http.MethodPost, common.APIDiscoveryRoute, bytes.NewBufferString("not json"))
	req.ContentLength = int64(len("not json"))
	rec := httptest.NewRecorder()

	NewDiscoveryHandler(runner, logging.New(common.LoggingInfo{}, "INFO", nil))(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// fakeMetadataNoop satisfies clients.MetadataClient for handler tests
// that only exercise the HTTP glue, never metadata interaction itself.
type fakeMetadataNoop struct{}

func (fakeMetadataNoop) GetDeviceService(ctx context.Context, name string) (*models.DeviceService, error) {
	return nil, nil
}
func (fakeMetadataNoop) GetAddressable(ctx context.Context, name string) (*models.Addressable, error) {
	return nil, nil
}
func (fakeMetadataNoop) CreateAddressable(ctx context.Context, addr models.Addressable) (string, error) {
	return "", nil
}
func (fakeMetadataNoop) UpdateAddressable(ctx context.Context, addr models.Addressable) error {
	return nil
}
func (fakeMetadataNoop) CreateDeviceService(ctx context.Context, ds models.DeviceService) (string, error) {
	return "", nil
}
func (fakeMetadataNoop) GetDevices(ctx context.Context, serviceName string) ([]models.Device, error) {
	return nil, nil
}
func (fakeMetadataNoop) GetWatchers(ctx context.Context, serviceName string) ([]models.ProvisionWatcher, error) {
	return nil, nil
}
func (fakeMetadataNoop) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	return nil, nil
}
func (fakeMetadataNoop) GetDeviceProfile(ctx context.Context, id string) (*models.DeviceProfile, error) {
	return nil, nil
}
func (fakeMetadataNoop) CreateDeviceProfile(ctx context.Context, p models.DeviceProfile) (string, error) {
	return "", nil
}
func (fakeMetadataNoop) CreateDevice(ctx context.Context, d models.Device) (string, error) {
	return "", nil
}
