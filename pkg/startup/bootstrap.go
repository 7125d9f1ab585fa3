// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// Package startup provides the CLI/signal glue every device service's
// main.go calls into, the way the teacher's examples/modbus/cmd/main.go
// parses flags and drives Service.Start/Stop around a signal wait.
package startup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/config"
	"github.com/circutor-labs/device-service-core/internal/device"
	"github.com/circutor-labs/device-service-core/internal/logging"
	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// Bootstrap parses argv, resolves the effective configuration, wires a
// Service around driver and runs it to SERVING, then blocks until
// SIGINT/SIGTERM and stops it gracefully. A bad command line or a
// failed bring-up exits the process with a non-zero status instead of
// returning, matching the teacher's startService/main split.
func Bootstrap(serviceName, version string, driver models.ProtocolDriver) {
	name, reg, profile, confDir, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", common.ErrInvalidArg, err)
		os.Exit(1)
	}
	if name == "" {
		name = serviceName
	}
	if confDir == "" {
		confDir = common.ConfigDirectory
	}
	if profile != "" {
		confDir = filepath.Join(confDir, profile)
	}
	applyRegistryEnvFallback(reg)

	pool := workerpool.New(1)
	defer pool.Close()

	var stop int32
	cfg, _, err := config.Resolve(context.Background(), config.Input{
		ServiceName: name,
		ConfDir:     confDir,
		Registry:    reg,
		RetryCount:  envInt(common.EnvRegistryRetryCount, common.DefaultRegistryRetryCount),
		RetryWait:   envDuration(common.EnvRegistryRetryWait, common.DefaultRegistryRetryWait),
		WorkerPool:  pool,
	}, func(context.Context, *models.NVList) {}, &stop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving configuration: %v\n", err)
		os.Exit(1)
	}
	atomic.StoreInt32(&stop, 1)

	lc := logging.New(cfg.Logging, cfg.Writable.LogLevel, nil)
	logging.Install(lc)

	svc, lerr := device.New(name, version, driver, lc)
	if lerr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", lerr)
		os.Exit(1)
	}
	svc.ConfDir = confDir
	svc.Profile = profile

	deps := device.Dependencies{
		Metadata: clients.NewMetadataClient(cfg.Clients[common.ClientMetadata].Url()),
		Data:     clients.NewDataClient(cfg.Clients[common.ClientData].Url()),
	}

	lc.Infof("%s: starting, version %s", name, version)
	if lerr := svc.Start(context.Background(), deps, reg); lerr != nil {
		lc.Errorf("%s: start failed: %v", name, lerr)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	lc.Infof("%s: exiting on %s signal", name, sig)

	svc.Stop(false)
}

// parseArgs implements spec.md §6's CLI contract: -n/--name <s>,
// -r/--registry [<url>] (value optional), -p/--profile <s>,
// -c/--confdir <s>. A flag value may be given as --flag=value or as a
// following argument; a required flag with no value, or an
// unrecognized flag, is a parse failure.
func parseArgs(args []string) (name string, reg *config.RegistryFlag, profile, confDir string, err error) {
	reg = &config.RegistryFlag{}

	i := 0
	for i < len(args) {
		arg := args[i]
		key, inlineVal, hasInline := strings.Cut(arg, "=")

		switch key {
		case "-n", "--name":
			v, consumed, verr := takeValue(args, i, hasInline, inlineVal, true)
			if verr != nil {
				return "", nil, "", "", verr
			}
			name = v
			i += consumed
		case "-r", "--registry":
			v, consumed, verr := takeValue(args, i, hasInline, inlineVal, false)
			if verr != nil {
				return "", nil, "", "", verr
			}
			reg.Present = true
			reg.URL = v
			i += consumed
		case "-p", "--profile":
			v, consumed, verr := takeValue(args, i, hasInline, inlineVal, true)
			if verr != nil {
				return "", nil, "", "", verr
			}
			profile = v
			i += consumed
		case "-c", "--confdir":
			v, consumed, verr := takeValue(args, i, hasInline, inlineVal, true)
			if verr != nil {
				return "", nil, "", "", verr
			}
			confDir = v
			i += consumed
		default:
			return "", nil, "", "", fmt.Errorf("unrecognized flag %q", arg)
		}
	}
	return name, reg, profile, confDir, nil
}

// takeValue resolves one flag's value: an inline "--flag=value" always
// wins; otherwise a following argument is consumed unless it looks
// like another flag. A required flag with neither is a parse error;
// an optional flag (registry) with neither simply has an empty value.
func takeValue(args []string, i int, hasInline bool, inlineVal string, required bool) (string, int, error) {
	if hasInline {
		return inlineVal, 1, nil
	}
	if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
		return args[i+1], 2, nil
	}
	if required {
		return "", 0, fmt.Errorf("flag %s requires a value", args[i])
	}
	return "", 1, nil
}

// applyRegistryEnvFallback resolves the edgex_registry environment
// variable per §4.9 step 2: an absent -r leaves the registry off
// entirely, but an empty -r URL (present, no value) still defers to
// the environment before falling back to the TOML file.
func applyRegistryEnvFallback(reg *config.RegistryFlag) {
	if reg.Present && reg.URL == "" {
		if url, ok := os.LookupEnv(common.EnvRegistryURL); ok && url != "" {
			reg.URL = url
		}
	}
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(name string, defSeconds int) time.Duration {
	return time.Duration(envInt(name, defSeconds)) * time.Second
}
