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
package main

import (
	"io"
	"sync"
	"time"
)

// connPort exposes a stream as the legacy cartridge register block: the
// flag is raised while a byte from the host is waiting.
type connPort struct {
	w      io.Writer
	closed func()
	in     chan byte
	done   chan struct{}
	once   sync.Once
	cur    byte
	has    bool

	mu  sync.Mutex
	err error
}

// closed is called once the stream fails.
func newConnPort(rw io.ReadWriter, closed func()) *connPort {
	p := &connPort{w: rw, closed: closed, in: make(chan byte, 64), done: make(chan struct{})}
	go p.readLoop(rw)
	return p
}

func (p *connPort) readLoop(r io.Reader) {
	defer close(p.in)
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			p.setErr(err)
			p.closed()
			return
		}
		select {
		case p.in <- b[0]:
		case <-p.done:
			return
		}
	}
}

// Close stops the reader once the port is no longer served. The stream
// itself is closed by its owner.
func (p *connPort) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *connPort) setErr(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *connPort) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Flag waits briefly for a byte so that polling does not spin.
func (p *connPort) Flag() byte {
	if !p.has {
		select {
		case b, ok := <-p.in:
			if ok {
				p.cur, p.has = b, true
			}
		case <-time.After(time.Millisecond):
		}
	}
	if p.has {
		return 1
	}
	return 0
}

func (p *connPort) Read() byte {
	return p.cur
}

func (p *connPort) Write(v byte) {
	p.has = false
	if _, err := p.w.Write([]byte{v}); err != nil {
		p.setErr(err)
	}
}
