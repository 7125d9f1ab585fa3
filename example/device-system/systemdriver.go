// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// Package system is a ProtocolDriver that reports host statistics
// (RAM, disk, uptime, CPU usage) instead of talking to an external
// device, useful for exercising a device service without any
// south-bound hardware.
package system

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

type SystemDriver struct {
	lc      *zap.SugaredLogger
	asyncCh chan<- *models.AsyncValues
}

type stats struct {
	cpuIdle  int
	cpuTotal int
	cpuUsage uint64
}

var statsValues stats

func (sys *SystemDriver) DisconnectDevice(deviceName string, protocols *models.ProtocolPropertiesList) error {
	return nil
}

func (sys *SystemDriver) Initialize(lc *zap.SugaredLogger, asyncCh chan<- *models.AsyncValues) error {
	sys.lc = lc
	sys.asyncCh = asyncCh
	go refreshStats()
	return nil
}

func (sys *SystemDriver) HandleReadCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest) ([]*models.CommandValue, error) {
	res := make([]*models.CommandValue, len(reqs))
	for i := range reqs {
		sys.lc.Debugf("SystemDriver.HandleReadCommands: dev=%s resource=%s", deviceName, reqs[i].DeviceObject.Name)

		value, err := getValue(reqs[i].DeviceObject.Name)
		if err != nil {
			sys.lc.Warnf("error getting system data: %v", err)
			return nil, err
		}

		cv := models.NewCommandValue(deviceName, reqs[i].RO, models.ValueTypeInt)
		cv.IntResult = int64(value)
		res[i] = cv
	}
	return res, nil
}

func (sys *SystemDriver) HandleWriteCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest, params []*models.CommandValue) error {
	return fmt.Errorf("SystemDriver.HandleWriteCommands not implemented")
}

func (sys *SystemDriver) Stop(force bool) error {
	sys.lc.Debugf("SystemDriver.Stop called: force=%v", force)
	close(sys.asyncCh)
	return nil
}

func (sys *SystemDriver) Discover() error {
	return nil
}

func getValue(resource string) (uint64, error) {
	switch resource {
	case "RAM_USAGE":
		info := syscall.Sysinfo_t{}
		if err := syscall.Sysinfo(&info); err != nil {
			return 0, fmt.Errorf("error getting RAM usage: %v", err)
		}
		return (info.Totalram - info.Freeram) * 100 / info.Totalram, nil
	case "DISK_USAGE":
		var stat syscall.Statfs_t
		if err := syscall.Statfs("/", &stat); err != nil {
			return 0, err
		}
		free := stat.Bfree * uint64(stat.Bsize)
		total := stat.Blocks * uint64(stat.Bsize)
		return (total - free) * 100 / total, nil
	case "UPTIME":
		return uint64(getUptime()), nil
	case "CPU_USAGE":
		return statsValues.cpuUsage, nil
	default:
		return 0, fmt.Errorf("unknown system resource: %s", resource)
	}
}

func getUptime() int64 {
	info := syscall.Sysinfo_t{}
	syscall.Sysinfo(&info)
	return info.Uptime
}

func stringBetween(value, a, b string) string {
	posFirst := strings.Index(value, a)
	if posFirst == -1 {
		return ""
	}
	posLast := strings.Index(value, b)
	if posLast == -1 {
		return ""
	}
	adjusted := posFirst + len(a)
	if adjusted >= posLast {
		return ""
	}
	return value[adjusted:posLast]
}

func refreshStats() {
	for {
		procstat, err := ioutil.ReadFile("/proc/stat")
		if err == nil {
			line := stringBetween(string(procstat), "cpu  ", "cpu0")
			fields := strings.Fields(line)
			if len(fields) >= 8 {
				user, _ := strconv.Atoi(fields[0])
				nice, _ := strconv.Atoi(fields[1])
				system, _ := strconv.Atoi(fields[2])
				idle, _ := strconv.Atoi(fields[3])
				iowait, _ := strconv.Atoi(fields[4])
				irq, _ := strconv.Atoi(fields[5])
				softirq, _ := strconv.Atoi(fields[6])
				steal, _ := strconv.Atoi(fields[7])

				currentIdle := idle + iowait
				currentNoIdle := user + nice + system + irq + softirq + steal
				currentTotal := currentIdle + currentNoIdle

				total := currentTotal - statsValues.cpuTotal
				idled := currentIdle - statsValues.cpuIdle
				statsValues.cpuIdle = currentIdle
				statsValues.cpuTotal = currentTotal
				if total > 0 {
					statsValues.cpuUsage = uint64((total - idled) * 100 / total)
				}
			}
		}
		time.Sleep(15 * time.Second)
	}
}
