// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	v := MakeVersion(1, 3, 250)
	assert.Equal(t, uint32(1), v.Major())
	assert.Equal(t, uint32(3), v.Minor())
	assert.Equal(t, uint32(250), v.Patch())
	assert.Equal(t, "1.3.250", v.String())

	ok, err := v.Satisfies(">= 1.0")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = MakeVersion(0, 9, 0).Satisfies(">= 1.0")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResult(t *testing.T) {
	assert.NoError(t, NewError(Success))
	err := fmt.Errorf("acquire: %w", NewError(ErrorOutOfDate))
	assert.ErrorIs(t, err, ErrorOutOfDate)
	assert.True(t, IsSwapchainStale(err))
	assert.True(t, IsSwapchainStale(Suboptimal))
	assert.False(t, IsSwapchainStale(ErrorDeviceLost))
	assert.False(t, IsSwapchainStale(errors.New("other")))
	assert.Equal(t, "vulkan error: ErrorDeviceLost (-4)", ErrorDeviceLost.Error())
	assert.True(t, ErrorDeviceLost.IsError())
	assert.False(t, Suboptimal.IsError())
}
