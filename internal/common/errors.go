// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import "net/http"

// ErrorCode is the structured taxonomy from spec.md §7.
type ErrorCode string

const (
	ErrNoDeviceImpl    ErrorCode = "NO_DEVICE_IMPL"
	ErrNoDeviceName    ErrorCode = "NO_DEVICE_NAME"
	ErrNoDeviceVersion ErrorCode = "NO_DEVICE_VERSION"
	ErrInvalidArg      ErrorCode = "INVALID_ARG"
	ErrBadConfig       ErrorCode = "BAD_CONFIG"
	ErrRemoteServerDown ErrorCode = "REMOTE_SERVER_DOWN"
	ErrDriverUnstart   ErrorCode = "DRIVER_UNSTART"
	ErrMetadataOp      ErrorCode = "METADATA_OPERATION_FAILED"
)

// AppError is a structured error carrying an HTTP status alongside a
// message, the shape the teacher's callback handler returns from every
// branch instead of a bare error.
type AppError interface {
	error
	Code() int
	Cause() error
}

type appError struct {
	message string
	cause   error
	code    int
}

func (e *appError) Error() string { return e.message }
func (e *appError) Code() int     { return e.code }
func (e *appError) Cause() error  { return e.cause }

// NewBadRequestError wraps a client-caused failure (HTTP 400).
func NewBadRequestError(message string, cause error) AppError {
	return &appError{message: message, cause: cause, code: http.StatusBadRequest}
}

// NewServerError wraps an internal failure (HTTP 500).
func NewServerError(message string, cause error) AppError {
	return &appError{message: message, cause: cause, code: http.StatusInternalServerError}
}

// NewNotFoundError wraps a missing-resource failure (HTTP 404).
func NewNotFoundError(message string, cause error) AppError {
	return &appError{message: message, cause: cause, code: http.StatusNotFound}
}

// LifecycleError is the (code, reason) pair a bring-up failure returns
// through the Lifecycle Engine's start entry point, per spec.md §7's
// "discriminated result type carrying either success data or a (code,
// reason) pair" guidance.
type LifecycleError struct {
	Code   ErrorCode
	Reason string
}

func (e *LifecycleError) Error() string {
	return string(e.Code) + ": " + e.Reason
}

// NewLifecycleError constructs a LifecycleError.
func NewLifecycleError(code ErrorCode, reason string) *LifecycleError {
	return &LifecycleError{Code: code, Reason: reason}
}
