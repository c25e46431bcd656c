// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	assert.NoError(t, Log(nil))
	err := errors.New("test error")
	assert.Equal(t, err, Log(err))
	assert.Equal(t, 3, Log1(3, err))
	assert.Equal(t, 4, Log1(4, nil))
}

func TestCallerInfo(t *testing.T) {
	ci := func() string { return CallerInfo() }()
	assert.Contains(t, ci, "errors_test.go")
}

func TestStdlib(t *testing.T) {
	base := New("base")
	wrapped := Join(base, New("other"))
	assert.True(t, Is(wrapped, base))
	var target interface{ Unwrap() []error }
	assert.True(t, As(wrapped, &target))
	assert.Len(t, target.Unwrap(), 2)
}
