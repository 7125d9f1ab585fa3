// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the composite logger Design Notes asks for:
// "Logger 'next' chaining: treat as a composite logger that fans out
// to N sinks; reconfiguration at start simply replaces the sink list
// atomically." zap's own zapcore.NewTee already is that fan-out, so
// reconfiguration here means rebuilding the tee and atomically
// swapping the package-level common.LoggingClient pointer rather than
// hand-rolling a sink list.
package logging

import (
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/circutor-labs/device-service-core/internal/common"
)

var swapMu sync.Mutex

func parseLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the local sink (stdout, or a file when cfg.File is set)
// and, when enableRemote is true, tees in a remote sink that writes
// through remoteWriter (typically a RemoteWriter). An unrecognized
// level falls back to INFO and is reported as a warning on the new
// logger. The returned logger is not installed as
// common.LoggingClient; call Install for that.
func New(cfg common.LoggingInfo, level string, remoteWriter io.Writer) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	lvl := parseLevel(level)

	var sink zapcore.WriteSyncer = zapcore.AddSync(localWriter(cfg.File))
	cores := []zapcore.Core{zapcore.NewCore(encoder, sink, lvl)}

	if cfg.EnableRemote && remoteWriter != nil {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(remoteWriter), lvl))
	}

	core := zapcore.NewTee(cores...)
	sugar := zap.New(core).Sugar()
	switch level {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		sugar.Warnf("unrecognized log level %q, defaulting to INFO", level)
	}
	return sugar
}

// Install atomically replaces common.LoggingClient with l. Calls race
// only with each other, never with the callers reading the package
// variable (zap's SugaredLogger is itself safe for concurrent use, so
// in-flight log calls against the old pointer simply finish against
// the old sink set).
func Install(l *zap.SugaredLogger) {
	swapMu.Lock()
	defer swapMu.Unlock()
	common.LoggingClient = l
}

func localWriter(file string) io.Writer {
	if file == "" {
		return stdoutWriter{}
	}
	f, err := openOrCreate(file)
	if err != nil {
		return stdoutWriter{}
	}
	return f
}
