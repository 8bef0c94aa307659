// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	assert.Equal(t, filepath.Clean(dir), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), GetConfigFile())
}

func TestNormalizePathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), NormalizePath("~/data"))
	assert.Equal(t, "a/b", NormalizePath("a//b/./"))
	assert.Equal(t, "", NormalizePath(""))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath(""))
	assert.NoError(t, ValidatePath("Rotten Tomatoes Reviews/Critic Reviews Clean"))

	err := ValidatePath("bad\x00path")
	var perr *PathValidationError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "contains null byte", perr.Reason)
}
