//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package pflagenv

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)

	var myFlag1, myFlag2, myFlag3, myFlag4 string
	fs.StringVar(&myFlag1, "my-flag1", "def1", "")
	fs.StringVar(&myFlag2, "my-flag2", "def2", "")
	fs.StringVar(&myFlag3, "my-flag3", "def3", "")
	fs.StringVar(&myFlag4, "my-flag4", "def4", "")
	fs.Parse([]string{"--my-flag1=cl1", "--my-flag2="})

	os.Setenv("TEST_MY_FLAG1", "env1")
	os.Setenv("TEST_MY_FLAG2", "env2")
	os.Setenv("TEST_MY_FLAG3", "env3")
	defer os.Unsetenv("TEST_MY_FLAG1")
	defer os.Unsetenv("TEST_MY_FLAG2")
	defer os.Unsetenv("TEST_MY_FLAG3")
	set, err := ParseFlagSet(fs, "TEST_")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-flag3"}, set)

	if got, want := myFlag1, "cl1"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}

	if got, want := myFlag2, ""; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}

	if got, want := myFlag3, "env3"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}

	if got, want := myFlag4, "def4"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestFillUnsetLayers(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)
	timeout := fs.Duration("timeout", time.Second, "")
	port := fs.String("port", "usb", "")
	fs.Parse(nil)

	first := map[string]string{"port": "tcp://localhost:5555"}
	second := map[string]string{"port": "/dev/ttyUSB0", "timeout": "3s"}
	for _, m := range []map[string]string{first, second} {
		_, err := FillUnset(fs, func(name string) (string, bool) {
			v, ok := m[name]
			return v, ok
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "tcp://localhost:5555", *port)
	assert.Equal(t, 3*time.Second, *timeout)
}

func TestFillUnsetInvalid(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)
	fs.Duration("timeout", time.Second, "")
	_, err := FillUnset(fs, func(name string) (string, bool) { return "soon", true })
	assert.Error(t, err)
}

func TestGetEnvName(t *testing.T) {
	if got, want := GetEnvName("reset-flags", "SATLINK_"), "SATLINK_RESET_FLAGS"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}
