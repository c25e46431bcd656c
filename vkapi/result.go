// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

import (
	"errors"
	"fmt"
)

// Result is an API result code, numerically identical to VkResult.
// All non-success values are returned as errors, so that callers
// can test them with errors.Is.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	Suboptimal                Result = 1000001003
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	ErrorOutOfDate            Result = -1000001004
	ErrorIncompatibleDisplay  Result = -1000003001
	ErrorValidationFailed     Result = -1000011001
	ErrorInvalidShader        Result = -1000012000
	ErrorOutOfPoolMemory      Result = -1000069000
)

var resultNames = map[Result]string{
	Success:                   "Success",
	NotReady:                  "NotReady",
	Timeout:                   "Timeout",
	Suboptimal:                "Suboptimal",
	ErrorOutOfHostMemory:      "ErrorOutOfHostMemory",
	ErrorOutOfDeviceMemory:    "ErrorOutOfDeviceMemory",
	ErrorInitializationFailed: "ErrorInitializationFailed",
	ErrorDeviceLost:           "ErrorDeviceLost",
	ErrorMemoryMapFailed:      "ErrorMemoryMapFailed",
	ErrorLayerNotPresent:      "ErrorLayerNotPresent",
	ErrorExtensionNotPresent:  "ErrorExtensionNotPresent",
	ErrorFeatureNotPresent:    "ErrorFeatureNotPresent",
	ErrorIncompatibleDriver:   "ErrorIncompatibleDriver",
	ErrorTooManyObjects:       "ErrorTooManyObjects",
	ErrorFormatNotSupported:   "ErrorFormatNotSupported",
	ErrorSurfaceLost:          "ErrorSurfaceLost",
	ErrorNativeWindowInUse:    "ErrorNativeWindowInUse",
	ErrorOutOfDate:            "ErrorOutOfDate",
	ErrorIncompatibleDisplay:  "ErrorIncompatibleDisplay",
	ErrorValidationFailed:     "ErrorValidationFailed",
	ErrorInvalidShader:        "ErrorInvalidShader",
	ErrorOutOfPoolMemory:      "ErrorOutOfPoolMemory",
}

func (r Result) String() string {
	if nm, ok := resultNames[r]; ok {
		return nm
	}
	return fmt.Sprintf("Result(%d)", int32(r))
}

func (r Result) Error() string {
	return fmt.Sprintf("vulkan error: %s (%d)", r.String(), int32(r))
}

// IsError returns true if the result is a failure code.
// Suboptimal, NotReady and Timeout are not failures.
func (r Result) IsError() bool {
	return r < 0
}

// NewError returns nil for [Success] and the result as an error otherwise.
func NewError(r Result) error {
	if r == Success {
		return nil
	}
	return r
}

// IsSwapchainStale reports whether err means the swapchain no
// longer matches the surface and must be recreated.
func IsSwapchainStale(err error) bool {
	var r Result
	if !errors.As(err, &r) {
		return false
	}
	return r == ErrorOutOfDate || r == Suboptimal
}

// ErrInvalidHandle is returned when a handle was never issued
// by the API implementation or has already been destroyed.
var ErrInvalidHandle = errors.New("vulkan error: invalid handle")
