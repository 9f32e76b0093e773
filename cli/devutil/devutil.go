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
package devutil

import (
	"github.com/juju/errors"

	"github.com/satlink/satlink/cli/client"
	"github.com/satlink/satlink/cli/flags"
	"github.com/satlink/satlink/cli/link"
)

// CreateLinkFromFlags opens the link to the cart described by the connection
// flags.
func CreateLinkFromFlags() (link.Link, error) {
	opts, err := flags.LinkOptions()
	if err != nil {
		return nil, errors.Trace(err)
	}
	port, err := GetPort(opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	l, err := link.Open(port, opts)
	return l, errors.Trace(err)
}

// CreateClientFromFlags opens the link and wraps it in a protocol client.
// The caller closes the returned link.
func CreateClientFromFlags() (*client.Client, link.Link, error) {
	l, err := CreateLinkFromFlags()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return client.New(l), l, nil
}
