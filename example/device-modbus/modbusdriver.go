// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// Package modbus is a ProtocolDriver implementation that reads and
// writes Modbus TCP/RTU registers, holding one goburrow/modbus client
// per physical link (address or serial port) so concurrent reads
// against the same link serialize instead of racing on the wire.
package modbus

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

const (
	modbusHoldingRegister = "HoldingRegister"
	modbusInputRegister   = "InputRegister"
	modbusCoil            = "Coil"
	modbusDiscreteInput   = "DiscreteInput"

	comTimeout = 2000 * time.Millisecond
)

type ModbusDriver struct {
	lc      *zap.SugaredLogger
	asyncCh chan<- *models.AsyncValues
}

type modbusDevice struct {
	tcpHandler *modbus.TCPClientHandler
	rtuHandler *modbus.RTUClientHandler
	client     modbus.Client
	mutex      sync.Mutex
}

type rtuConfig struct {
	address  string
	baudRate int
	dataBits int
	stopBits int
	parity   string
	slaveID  byte
}

type readConfig struct {
	function   string
	address    uint16
	size       uint16
	valueType  string
	byteSwap   bool
	wordSwap   bool
}

var (
	linkMu sync.Mutex
	links  = map[string]*modbusDevice{}
)

func (m *ModbusDriver) DisconnectDevice(deviceName string, protocols *models.ProtocolPropertiesList) error {
	return nil
}

func (m *ModbusDriver) Initialize(lc *zap.SugaredLogger, asyncCh chan<- *models.AsyncValues) error {
	m.lc = lc
	m.asyncCh = asyncCh
	return nil
}

func (m *ModbusDriver) HandleReadCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest) ([]*models.CommandValue, error) {
	dev, err := acquireLink(protocols)
	if err != nil {
		m.lc.Warnf("modbus: error connecting to %s: %v", deviceName, err)
		return nil, err
	}
	defer releaseLink(dev)

	res := make([]*models.CommandValue, len(reqs))
	for i := range reqs {
		m.lc.Debugf("modbus: dev=%s resource=%s attrs=%v", deviceName, reqs[i].RO.Object, reqs[i].DeviceObject.Attributes)

		rc, err := parseReadConfig(reqs[i].DeviceObject)
		if err != nil {
			m.lc.Warnf("modbus: bad register config: %v", err)
			return nil, err
		}

		data, err := readRegisters(dev.client, rc)
		if err != nil {
			m.lc.Warnf("modbus: read failed: %v", err)
			return nil, err
		}

		cv, err := decodeValue(deviceName, reqs[i].RO, rc, data)
		if err != nil {
			return nil, err
		}
		res[i] = cv
	}
	return res, nil
}

func (m *ModbusDriver) HandleWriteCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest, params []*models.CommandValue) error {
	return fmt.Errorf("ModbusDriver.HandleWriteCommands not implemented")
}

func (m *ModbusDriver) Stop(force bool) error {
	m.lc.Debugf("ModbusDriver.Stop called: force=%v", force)
	close(m.asyncCh)
	return nil
}

func (m *ModbusDriver) Discover() error {
	return nil
}

func acquireLink(protocols *models.ProtocolPropertiesList) (*modbusDevice, error) {
	if tcp := protocols.Find("ModbusTCP"); tcp != nil {
		addr, err := tcpAddress(tcp)
		if err != nil {
			return nil, err
		}
		dev := linkFor(addr, func() *modbusDevice { return newTCPLink(addr) })
		dev.mutex.Lock()
		if err := dev.tcpHandler.Connect(); err != nil {
			dev.mutex.Unlock()
			return nil, fmt.Errorf("modbus TCP connect %s: %w", addr, err)
		}
		return dev, nil
	}
	if rtu := protocols.Find("ModbusRTU"); rtu != nil {
		cfg, err := rtuConfigFrom(rtu)
		if err != nil {
			return nil, err
		}
		dev := linkFor(cfg.address, func() *modbusDevice { return newRTULink(cfg) })
		dev.mutex.Lock()
		dev.rtuHandler.BaudRate = cfg.baudRate
		dev.rtuHandler.DataBits = cfg.dataBits
		dev.rtuHandler.StopBits = cfg.stopBits
		dev.rtuHandler.Parity = cfg.parity
		dev.rtuHandler.SlaveId = cfg.slaveID
		if err := dev.rtuHandler.Connect(); err != nil {
			dev.mutex.Unlock()
			return nil, fmt.Errorf("modbus RTU connect %s: %w", cfg.address, err)
		}
		return dev, nil
	}
	return nil, fmt.Errorf("device declares neither ModbusTCP nor ModbusRTU protocol")
}

func releaseLink(dev *modbusDevice) {
	if dev.tcpHandler != nil {
		dev.tcpHandler.Close()
	} else if dev.rtuHandler != nil {
		dev.rtuHandler.Close()
	}
	dev.mutex.Unlock()
}

func linkFor(key string, create func() *modbusDevice) *modbusDevice {
	linkMu.Lock()
	defer linkMu.Unlock()
	dev, ok := links[key]
	if !ok {
		dev = create()
		links[key] = dev
	}
	return dev
}

func newTCPLink(addr string) *modbusDevice {
	h := modbus.NewTCPClientHandler(addr)
	h.Timeout = comTimeout
	return &modbusDevice{tcpHandler: h, client: modbus.NewClient(h)}
}

func newRTULink(cfg rtuConfig) *modbusDevice {
	h := modbus.NewRTUClientHandler(cfg.address)
	h.Timeout = comTimeout
	return &modbusDevice{rtuHandler: h, client: modbus.NewClient(h)}
}

func tcpAddress(protocol *models.NVList) (string, error) {
	host, ok := protocol.Find("Host")
	if !ok || host == "" {
		return "", fmt.Errorf("ModbusTCP: missing Host")
	}
	portStr, ok := protocol.Find("Port")
	if !ok {
		return "", fmt.Errorf("ModbusTCP: missing Port")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return "", fmt.Errorf("ModbusTCP: invalid Port %q", portStr)
	}
	return fmt.Sprintf("%s:%d", host, port), nil
}

func rtuConfigFrom(protocol *models.NVList) (rtuConfig, error) {
	var cfg rtuConfig
	address, ok := protocol.Find("Address")
	if !ok {
		return cfg, fmt.Errorf("ModbusRTU: missing Address")
	}
	cfg.address = address

	baud, ok := protocol.Find("BaudRate")
	if !ok {
		return cfg, fmt.Errorf("ModbusRTU: missing BaudRate")
	}
	var err error
	cfg.baudRate, err = strconv.Atoi(baud)
	if err != nil {
		return cfg, fmt.Errorf("ModbusRTU: invalid BaudRate: %v", err)
	}

	dataBits, ok := protocol.Find("DataBits")
	if !ok || dataBits != "8" {
		return cfg, fmt.Errorf("ModbusRTU: invalid DataBits %q", dataBits)
	}
	cfg.dataBits = 8

	stopBits, ok := protocol.Find("StopBits")
	if !ok || (stopBits != "0" && stopBits != "1") {
		return cfg, fmt.Errorf("ModbusRTU: invalid StopBits %q", stopBits)
	}
	cfg.stopBits, _ = strconv.Atoi(stopBits)

	parity, ok := protocol.Find("Parity")
	if !ok {
		return cfg, fmt.Errorf("ModbusRTU: missing Parity")
	}
	switch parity {
	case "0":
		parity = "N"
	case "1":
		parity = "O"
	case "2":
		parity = "E"
	}
	if parity != "N" && parity != "O" && parity != "E" {
		return cfg, fmt.Errorf("ModbusRTU: invalid Parity %q", parity)
	}
	cfg.parity = parity

	unitID, ok := protocol.Find("UnitID")
	if !ok {
		return cfg, fmt.Errorf("ModbusRTU: missing UnitID")
	}
	unit, err := strconv.Atoi(unitID)
	if err != nil || unit == 0 || unit > 247 {
		return cfg, fmt.Errorf("ModbusRTU: invalid UnitID %q", unitID)
	}
	cfg.slaveID = byte(unit)

	return cfg, nil
}

func parseReadConfig(obj models.DeviceObject) (readConfig, error) {
	var rc readConfig
	if len(obj.Attributes) < 3 {
		return rc, fmt.Errorf("modbus: device object %s missing attributes", obj.Name)
	}
	rc.function = obj.Attributes["PrimaryTable"]
	switch rc.function {
	case modbusHoldingRegister, modbusInputRegister, modbusCoil, modbusDiscreteInput:
	default:
		return rc, fmt.Errorf("modbus: invalid PrimaryTable %q", rc.function)
	}

	addr, err := strconv.Atoi(obj.Attributes["StartingAddress"])
	if err != nil {
		return rc, fmt.Errorf("modbus: invalid StartingAddress: %v", err)
	}
	rc.address = uint16(addr)

	rc.valueType = obj.Attributes["ValueType"]
	switch rc.valueType {
	case "UINT16", "INT16", "BOOL":
		rc.size = 1
	case "UINT32", "INT32", "FLOAT32":
		rc.size = 2
	case "UINT64", "INT64", "FLOAT64":
		rc.size = 4
	case "STRING", "ARRAY":
		n, err := strconv.Atoi(obj.Attributes["Length"])
		if err != nil {
			return rc, fmt.Errorf("modbus: invalid Length: %v", err)
		}
		rc.size = uint16(n)
	default:
		return rc, fmt.Errorf("modbus: unsupported ValueType %q", rc.valueType)
	}

	rc.byteSwap = strings.EqualFold(obj.Attributes["IsByteSwap"], "true")
	rc.wordSwap = strings.EqualFold(obj.Attributes["IsWordSwap"], "true")
	return rc, nil
}

func readRegisters(client modbus.Client, rc readConfig) ([]byte, error) {
	switch rc.function {
	case modbusHoldingRegister:
		return client.ReadHoldingRegisters(rc.address, rc.size)
	case modbusInputRegister:
		return client.ReadInputRegisters(rc.address, rc.size)
	case modbusCoil:
		return client.ReadCoils(rc.address, rc.size)
	case modbusDiscreteInput:
		return client.ReadDiscreteInputs(rc.address, rc.size)
	}
	return nil, fmt.Errorf("modbus: invalid read function %q", rc.function)
}

func decodeValue(deviceName string, ro models.ResourceOperation, rc readConfig, data []byte) (*models.CommandValue, error) {
	swapped := swapBytes(data, rc.byteSwap, rc.wordSwap)

	switch rc.valueType {
	case "UINT16", "INT16":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeInt)
		cv.IntResult = int64(binary.BigEndian.Uint16(swapped))
		return cv, nil
	case "UINT32", "INT32":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeInt)
		cv.IntResult = int64(binary.BigEndian.Uint32(swapped))
		return cv, nil
	case "UINT64", "INT64":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeInt)
		cv.IntResult = int64(binary.BigEndian.Uint64(swapped))
		return cv, nil
	case "FLOAT32":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeFloat)
		cv.FloatResult = float64(math.Float32frombits(binary.BigEndian.Uint32(data)))
		return cv, nil
	case "FLOAT64":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeFloat)
		cv.FloatResult = math.Float64frombits(binary.BigEndian.Uint64(data))
		return cv, nil
	case "BOOL":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeBool)
		for _, b := range data {
			if b != 0 {
				cv.BoolResult = true
				break
			}
		}
		return cv, nil
	case "STRING":
		var buf bytes.Buffer
		for _, b := range data {
			if b >= 0x20 && b <= 0x7F {
				buf.WriteByte(b)
			}
		}
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeString)
		cv.StringResult = buf.String()
		return cv, nil
	case "ARRAY":
		cv := models.NewCommandValue(deviceName, ro, models.ValueTypeString)
		cv.StringResult = hex.EncodeToString(data)
		return cv, nil
	}
	return nil, fmt.Errorf("modbus: unsupported ValueType %q", rc.valueType)
}

func swapBytes(data []byte, byteSwap, wordSwap bool) []byte {
	if !byteSwap && !wordSwap {
		return data
	}
	out := make([]byte, len(data))
	switch len(data) {
	case 2:
		if byteSwap {
			out[0], out[1] = data[1], data[0]
			return out
		}
	case 4:
		if byteSwap {
			out[0], out[1], out[2], out[3] = data[1], data[0], data[3], data[2]
		} else {
			copy(out, data)
		}
		if wordSwap {
			out[0], out[1], out[2], out[3] = out[2], out[3], out[0], out[1]
		}
		return out
	case 8:
		if byteSwap {
			out[0], out[1], out[2], out[3] = data[1], data[0], data[3], data[2]
			out[4], out[5], out[6], out[7] = data[5], data[4], data[7], data[6]
		} else {
			copy(out, data)
		}
		if wordSwap {
			o := make([]byte, 8)
			copy(o, out)
			out[0], out[1], out[2], out[3] = o[6], o[7], o[4], o[5]
			out[4], out[5], out[6], out[7] = o[2], o[3], o[0], o[1]
		}
		return out
	}
	return data
}
