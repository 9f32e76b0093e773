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
package ourio

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// WriteFileAtomic writes data to a temporary file next to filename and
// renames it into place, so filename is either left alone or fully written.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	f, err := ioutil.TempFile(filepath.Dir(filename), "."+filepath.Base(filename)+".")
	if err != nil {
		return errors.Trace(err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Trace(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Trace(err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return errors.Trace(err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return errors.Trace(err)
	}
	return nil
}

// ReadFileMax reads filename, failing if it is larger than max bytes.
func ReadFileMax(filename string, max int64) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	data, err := ioutil.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if int64(len(data)) > max {
		return nil, errors.Errorf("%s is larger than %d bytes", filename, max)
	}
	return data, nil
}
