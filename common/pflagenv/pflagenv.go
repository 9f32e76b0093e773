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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
)

// ParseFlagSet fills every flag of fs that was not given on the command line
// from the environment variable envPrefix + NAME, where NAME is the flag name
// upper-cased with dashes turned into underscores. It returns the names of the
// flags that were set.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string) ([]string, error) {
	return FillUnset(fs, func(name string) (string, bool) {
		v := os.Getenv(GetEnvName(name, envPrefix))
		return v, v != ""
	})
}

func Parse(envPrefix string) ([]string, error) {
	return ParseFlagSet(pflag.CommandLine, envPrefix)
}

// FillUnset sets flags that have not been changed yet from lookup. Flags set
// this way are marked as changed, so a later source does not override them.
func FillUnset(fs *pflag.FlagSet, lookup func(name string) (string, bool)) ([]string, error) {

	// Unfortunately, flag package does not provide a way to distinguish between
	// a flag set to default value and a flag which was not set at all. So
	// here is a workaround: first, we visit all flags and save their names,
	// then we visit all set flags and remove those names.

	nonset := make(map[string]*pflag.Flag)

	fs.VisitAll(func(f *pflag.Flag) {
		nonset[f.Name] = f
	})
	fs.Visit(func(f *pflag.Flag) {
		delete(nonset, f.Name)
	})

	var names []string
	for name := range nonset {
		names = append(names, name)
	}
	sort.Strings(names)

	var set []string
	for _, name := range names {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		f := nonset[name]
		if err := f.Value.Set(v); err != nil {
			return set, errors.Annotatef(err, "invalid value %q for --%s", v, name)
		}
		f.Changed = true
		set = append(set, name)
	}
	return set, nil
}

func GetEnvName(flagName, envPrefix string) string {
	flagName = strings.ToUpper(flagName)
	flagName = strings.Replace(flagName, "-", "_", -1)
	return fmt.Sprint(envPrefix, flagName)
}
