// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	contractmodels "github.com/edgexfoundry/go-mod-core-contracts/models"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// metadataClient adapts the metadata REST operations (§4.5) to
// the local MetadataClient contract. Per spec.md §1, "the REST clients
// to metadata/data/logging/registry" are out of scope beyond the
// operations the core consumes, so this talks plain JSON-over-HTTP
// rather than wrapping a generated client; the wire types it
// marshals/unmarshals are go-mod-core-contracts's stable `models`
// package, the same contracts package the teacher's go.mod declares.
type metadataClient struct {
	baseURL string
	http    *http.Client
}

// NewMetadataClient builds a metadata client against baseURL (e.g.
// "http://core-metadata:48081"), using a pooled client from
// go-cleanhttp instead of the zero-value http.Client.
func NewMetadataClient(baseURL string) MetadataClient {
	return &metadataClient{baseURL: baseURL, http: cleanhttp.DefaultPooledClient()}
}

func (c *metadataClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("metadata request %s %s failed: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *metadataClient) GetDeviceService(ctx context.Context, name string) (*models.DeviceService, error) {
	var ds contractmodels.DeviceService
	if err := c.do(ctx, http.MethodGet, "/api/v1/deviceservice/name/"+name, nil, &ds); err != nil {
		return nil, errors.Wrap(err, "GetDeviceService")
	}
	out := fromContractDeviceService(ds)
	return &out, nil
}

func (c *metadataClient) GetAddressable(ctx context.Context, name string) (*models.Addressable, error) {
	var a contractmodels.Addressable
	if err := c.do(ctx, http.MethodGet, "/api/v1/addressable/name/"+name, nil, &a); err != nil {
		return nil, errors.Wrap(err, "GetAddressable")
	}
	out := fromContractAddressable(a)
	return &out, nil
}

func (c *metadataClient) CreateAddressable(ctx context.Context, addr models.Addressable) (string, error) {
	var id string
	if err := c.do(ctx, http.MethodPost, "/api/v1/addressable", toContractAddressable(addr), &id); err != nil {
		return "", errors.Wrap(err, "CreateAddressable")
	}
	return id, nil
}

func (c *metadataClient) UpdateAddressable(ctx context.Context, addr models.Addressable) error {
	if err := c.do(ctx, http.MethodPut, "/api/v1/addressable", toContractAddressable(addr), nil); err != nil {
		return errors.Wrap(err, "UpdateAddressable")
	}
	return nil
}

func (c *metadataClient) CreateDeviceService(ctx context.Context, ds models.DeviceService) (string, error) {
	var id string
	if err := c.do(ctx, http.MethodPost, "/api/v1/deviceservice", toContractDeviceService(ds), &id); err != nil {
		return "", errors.Wrap(err, "CreateDeviceService")
	}
	return id, nil
}

func (c *metadataClient) GetDevices(ctx context.Context, serviceName string) ([]models.Device, error) {
	var ds []contractmodels.Device
	if err := c.do(ctx, http.MethodGet, "/api/v1/device/servicename/"+serviceName, nil, &ds); err != nil {
		return nil, errors.Wrap(err, "GetDevices")
	}
	out := make([]models.Device, len(ds))
	for i, d := range ds {
		out[i] = fromContractDevice(d)
	}
	return out, nil
}

func (c *metadataClient) GetWatchers(ctx context.Context, serviceName string) ([]models.ProvisionWatcher, error) {
	var ws []contractmodels.ProvisionWatcher
	if err := c.do(ctx, http.MethodGet, "/api/v1/provisionwatcher/servicename/"+serviceName, nil, &ws); err != nil {
		return nil, errors.Wrap(err, "GetWatchers")
	}
	out := make([]models.ProvisionWatcher, len(ws))
	for i, w := range ws {
		out[i] = fromContractProvisionWatcher(w)
	}
	return out, nil
}

func (c *metadataClient) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	var d contractmodels.Device
	if err := c.do(ctx, http.MethodGet, "/api/v1/device/"+id, nil, &d); err != nil {
		return nil, errors.Wrap(err, "GetDevice")
	}
	out := fromContractDevice(d)
	return &out, nil
}

func (c *metadataClient) GetDeviceProfile(ctx context.Context, id string) (*models.DeviceProfile, error) {
	var p contractmodels.DeviceProfile
	if err := c.do(ctx, http.MethodGet, "/api/v1/deviceprofile/"+id, nil, &p); err != nil {
		return nil, errors.Wrap(err, "GetDeviceProfile")
	}
	out := fromContractDeviceProfile(p)
	return &out, nil
}

func (c *metadataClient) CreateDeviceProfile(ctx context.Context, p models.DeviceProfile) (string, error) {
	var id string
	if err := c.do(ctx, http.MethodPost, "/api/v1/deviceprofile", toContractDeviceProfile(p), &id); err != nil {
		return "", errors.Wrap(err, "CreateDeviceProfile")
	}
	return id, nil
}

func (c *metadataClient) CreateDevice(ctx context.Context, d models.Device) (string, error) {
	var id string
	if err := c.do(ctx, http.MethodPost, "/api/v1/device", toContractDevice(d), &id); err != nil {
		return "", errors.Wrap(err, "CreateDevice")
	}
	return id, nil
}

// --- contract <-> local model conversions ---
//
// go-mod-core-contracts's models are the wire types marshaled over
// HTTP; the local pkg/models types are this repo's working set.
// Conversions live here, at the one seam that imports both, so
// nothing else in the tree needs to know go-mod-core-contracts exists.

func fromContractAddressable(a contractmodels.Addressable) models.Addressable {
	return models.Addressable{
		Id:       a.Id,
		Name:     a.Name,
		Protocol: a.Protocol,
		Method:   a.Method,
		Address:  a.Address,
		Port:     a.Port,
		Path:     a.Path,
		Origin:   a.Origin,
	}
}

func toContractAddressable(a models.Addressable) contractmodels.Addressable {
	return contractmodels.Addressable{
		Id:       a.Id,
		Name:     a.Name,
		Protocol: a.Protocol,
		Method:   a.Method,
		Address:  a.Address,
		Port:     a.Port,
		Path:     a.Path,
		Origin:   a.Origin,
	}
}

func fromContractDeviceService(ds contractmodels.DeviceService) models.DeviceService {
	return models.DeviceService{
		Id:          ds.Id,
		Name:        ds.Name,
		Addressable: fromContractAddressable(ds.Addressable),
		AdminState:  models.AdminState(ds.AdminState),
		OperState:   models.OperatingState(ds.OperatingState),
		Labels:      ds.Labels,
		Created:     ds.Created,
		Modified:    ds.Modified,
	}
}

func toContractDeviceService(ds models.DeviceService) contractmodels.DeviceService {
	return contractmodels.DeviceService{
		Id:             ds.Id,
		Name:           ds.Name,
		Addressable:    toContractAddressable(ds.Addressable),
		AdminState:     contractmodels.AdminState(ds.AdminState),
		OperatingState: contractmodels.OperatingState(ds.OperState),
		Labels:         ds.Labels,
		Created:        ds.Created,
		Modified:       ds.Modified,
	}
}

func fromContractDevice(d contractmodels.Device) models.Device {
	p := fromContractDeviceProfile(d.Profile)
	return models.Device{
		Id:         d.Id,
		Name:       d.Name,
		AdminState: models.AdminState(d.AdminState),
		OperState:  models.OperatingState(d.OperatingState),
		Protocols:  fromContractProtocols(d.Protocols),
		Profile:    &p,
		Labels:     d.Labels,
	}
}

func toContractDevice(d models.Device) contractmodels.Device {
	name := ""
	if d.Profile != nil {
		name = d.Profile.Name
	}
	return contractmodels.Device{
		Id:             d.Id,
		Name:           d.Name,
		AdminState:     contractmodels.AdminState(d.AdminState),
		OperatingState: contractmodels.OperatingState(d.OperState),
		Labels:         d.Labels,
		Profile:        contractmodels.DeviceProfile{Name: name},
	}
}

func fromContractProtocols(p map[string]contractmodels.ProtocolProperties) *models.ProtocolPropertiesList {
	l := models.NewProtocolPropertiesList()
	for proto, props := range p {
		nv := models.NewNVList()
		for k, v := range props {
			nv.Append(k, v)
		}
		l.Append(proto, nv)
	}
	return l
}

func fromContractDeviceProfile(p contractmodels.DeviceProfile) models.DeviceProfile {
	out := models.DeviceProfile{Id: p.Id, Name: p.Name}
	for _, r := range p.DeviceResources {
		out.Objects = append(out.Objects, models.DeviceObject{
			Name: r.Name,
			Tag:  r.Tag,
		})
	}
	for _, cmd := range p.Commands {
		out.Commands = append(out.Commands, models.Command{Name: cmd.Name})
	}
	return out
}

func toContractDeviceProfile(p models.DeviceProfile) contractmodels.DeviceProfile {
	out := contractmodels.DeviceProfile{Id: p.Id, Name: p.Name}
	for _, o := range p.Objects {
		out.DeviceResources = append(out.DeviceResources, contractmodels.DeviceResource{Name: o.Name, Tag: o.Tag})
	}
	return out
}

func fromContractProvisionWatcher(w contractmodels.ProvisionWatcher) models.ProvisionWatcher {
	ids := make(map[string]string, len(w.Identifiers))
	for k, v := range w.Identifiers {
		ids[k] = v
	}
	return models.ProvisionWatcher{
		Id:          w.Id,
		Name:        w.Name,
		ProfileName: w.Profile.Name,
		Identifiers: ids,
	}
}
