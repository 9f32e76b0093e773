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
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfile = `
vid: "1209"
pid: "0x5a7a"
port: tcp://localhost:5555
baud-rate: 57600
timeout: 5s
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(testProfile))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"vid":       "1209",
		"pid":       "0x5a7a",
		"port":      "tcp://localhost:5555",
		"baud-rate": "57600",
		"timeout":   "5s",
	}, p.Values())

	_, err = Parse([]byte("vendor: 1209\n"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	fs := flag.NewFlagSet("config-test", flag.ContinueOnError)
	port := fs.String("port", "usb", "")
	vid := fs.StringP("vid", "v", "0403", "")
	baud := fs.Uint("baud-rate", 115200, "")
	timeout := fs.Duration("timeout", 20*time.Second, "")
	require.NoError(t, fs.Parse([]string{"-v", "04d8"}))

	p, err := Parse([]byte(testProfile))
	require.NoError(t, err)
	set, err := Apply(fs, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"baud-rate", "port", "timeout"}, set)

	assert.Equal(t, "04d8", *vid)
	assert.Equal(t, "tcp://localhost:5555", *port)
	assert.Equal(t, uint(57600), *baud)
	assert.Equal(t, 5*time.Second, *timeout)
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "satlink-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(testProfile), 0644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:5555", p.Port)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicitly named profile must exist")
}
