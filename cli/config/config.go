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

// Package config loads the user profile: a YAML file holding defaults for the
// connection flags, so a cart that is not on the stock FTDI IDs does not need
// them spelled out on every invocation.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"

	"github.com/satlink/satlink/common/pflagenv"
)

const DefaultFileName = ".satlink.yaml"

// Profile keys are the flag names they provide defaults for.
type Profile struct {
	VID        string `yaml:"vid,omitempty"`
	PID        string `yaml:"pid,omitempty"`
	Serial     string `yaml:"serial,omitempty"`
	Port       string `yaml:"port,omitempty"`
	BaudRate   uint   `yaml:"baud-rate,omitempty"`
	IOTimeout  string `yaml:"io-timeout,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
	Latency    uint8  `yaml:"latency,omitempty"`
	ResetFlags string `yaml:"reset-flags,omitempty"`
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// Parse decodes a profile. Unknown keys are an error.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, errors.Annotatef(err, "invalid profile")
	}
	return &p, nil
}

// Load reads the profile at path. If path is empty the default location is
// used, and a missing file there yields an empty profile.
func Load(path string) (*Profile, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return &Profile{}, nil
		}
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Profile{}, nil
		}
		return nil, errors.Annotatef(err, "failed to read profile")
	}
	glog.V(1).Infof("Using profile %s", path)
	p, err := Parse(data)
	return p, errors.Annotatef(err, "%s", path)
}

// Values returns the profile as flag name to value.
func (p *Profile) Values() map[string]string {
	m := map[string]string{}
	set := func(name, v string) {
		if v != "" {
			m[name] = v
		}
	}
	set("vid", p.VID)
	set("pid", p.PID)
	set("serial", p.Serial)
	set("port", p.Port)
	if p.BaudRate != 0 {
		m["baud-rate"] = strconv.FormatUint(uint64(p.BaudRate), 10)
	}
	set("io-timeout", p.IOTimeout)
	set("timeout", p.Timeout)
	if p.Latency != 0 {
		m["latency"] = strconv.FormatUint(uint64(p.Latency), 10)
	}
	set("reset-flags", p.ResetFlags)
	return m
}

// Apply sets the flags of fs that are still unset from the profile. It
// returns the names of the flags it changed.
func Apply(fs *flag.FlagSet, p *Profile) ([]string, error) {
	values := p.Values()
	set, err := pflagenv.FillUnset(fs, func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
	if err != nil {
		return set, errors.Annotatef(err, "profile")
	}
	return set, nil
}
