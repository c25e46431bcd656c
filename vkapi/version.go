// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a packed API version as used by Vulkan:
// major in the top 10 bits, then 10 bits of minor and 12 of patch.
type Version uint32

// MakeVersion packs the given version numbers.
func MakeVersion(major, minor, patch uint32) Version {
	return Version(major<<22 | (minor&0x3ff)<<12 | patch&0xfff)
}

func (v Version) Major() uint32 { return uint32(v) >> 22 }
func (v Version) Minor() uint32 { return (uint32(v) >> 12) & 0x3ff }
func (v Version) Patch() uint32 { return uint32(v) & 0xfff }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// Semver returns the version as a semantic version.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major()), uint64(v.Minor()), uint64(v.Patch()), "", "")
}

// Satisfies reports whether the version meets the given
// semver constraint, such as ">= 1.0".
func (v Version) Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(v.Semver()), nil
}
