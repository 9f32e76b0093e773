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
	"context"
	"io"
	"net"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"

	"github.com/satlink/satlink/common/usbdc"
	"github.com/satlink/satlink/target/legacy"
	"github.com/satlink/satlink/target/memory"
	"github.com/satlink/satlink/target/monitor"
)

const (
	protocolModern = "modern"
	protocolLegacy = "legacy"
)

// Server plays the cart firmware for one host connection at a time. Memory
// persists across connections, like a console that stays powered.
type Server struct {
	Mem  *memory.RAM
	Exec *memory.Recorder

	Protocol     string
	Monitor      monitor.Config
	PollInterval time.Duration
	IOTimeout    time.Duration
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		l.Close()
		return nil
	})
	g.Go(func() error {
		for {
			conn, err := l.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Annotatef(err, "accept")
			}
			glog.Infof("%s: connected", conn.RemoteAddr())
			err = s.serveConn(ctx, conn)
			conn.Close()
			if err != nil && ctx.Err() == nil {
				glog.Errorf("%s: %s", conn.RemoteAddr(), err)
			}
			glog.Infof("%s: disconnected", conn.RemoteAddr())
		}
	})
	return g.Wait()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	if s.Protocol == protocolLegacy {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		port := newConnPort(conn, cancel)
		defer port.Close()
		return s.serveLegacy(ctx, port)
	}
	ch := usbdc.NewConnChannel(conn, s.IOTimeout)
	for {
		err := monitor.New(ch, s.Mem, s.Exec, &s.Monitor).Serve(ctx, s.PollInterval)
		switch {
		case err == monitor.ErrHandedOff:
			// The program "returns" into a fresh monitor.
			continue
		case isDisconnect(err):
			return nil
		}
		return errors.Trace(err)
	}
}

func (s *Server) serveLegacy(ctx context.Context, port *connPort) error {
	h := legacy.New(port, s.Mem, s.Exec, s.Monitor.Zones)
	for ctx.Err() == nil {
		err := h.Poll(ctx)
		// A dropped connection also cancels ctx.
		if perr := port.Err(); perr != nil {
			if isDisconnect(perr) {
				return nil
			}
			return errors.Trace(perr)
		}
		switch {
		case err == monitor.ErrHandedOff:
			h = legacy.New(port, s.Mem, s.Exec, s.Monitor.Zones)
		case err != nil:
			return errors.Trace(err)
		}
	}
	return nil
}

func isDisconnect(err error) bool {
	cause := errors.Cause(err)
	if ce, ok := cause.(*usbdc.ChannelError); ok {
		cause = errors.Cause(ce.Err)
	}
	if cause == io.EOF || cause == io.ErrClosedPipe {
		return true
	}
	if ne, ok := cause.(*net.OpError); ok {
		return !ne.Timeout()
	}
	return false
}
