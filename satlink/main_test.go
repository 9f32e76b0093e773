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
	"bytes"
	"context"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlink/satlink/cli/client"
	"github.com/satlink/satlink/common/usbdc"
	"github.com/satlink/satlink/target/memory"
	"github.com/satlink/satlink/target/monitor"
)

func TestPreprocessArgs(t *testing.T) {
	for _, c := range []struct {
		in   []string
		want []string
	}{
		{[]string{"satlink", "-dump", "bios.bin"}, []string{"satlink", "--dump", "bios.bin"}},
		{[]string{"satlink", "-dump=bios.bin"}, []string{"satlink", "--dump=bios.bin"}},
		{[]string{"satlink", "-help"}, []string{"satlink", "--help"}},
		{[]string{"satlink", "-d", "a.bin", "0x200000", "16"}, []string{"satlink", "-d", "a.bin", "0x200000", "16"}},
		{[]string{"satlink", "--dump", "b.bin"}, []string{"satlink", "--dump", "b.bin"}},
		{[]string{"satlink", "-u", "x", "--", "-dump"}, []string{"satlink", "-u", "x", "--", "-dump"}},
	} {
		assert.Equal(t, c.want, preprocessArgs(c.in))
	}
}

func TestFormatConsole(t *testing.T) {
	var buf bytes.Buffer
	formatConsole(&buf, []byte("Hi\tthere\r\n\x00\x01\x7fok"))
	if got, want := buf.String(), "Hi    there[CR]\n[0x7f]ok"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

// resetCommandFlags restores the command flags once the test is over.
func resetCommandFlags(t *testing.T) {
	saved := []string{*downloadFile, *uploadFile, *execFile, *runAddr, *dumpFile, *resetFlags}
	savedBools := []bool{*listFlag, *fwVersion}
	t.Cleanup(func() {
		*downloadFile, *uploadFile, *execFile, *runAddr, *dumpFile, *resetFlags = saved[0], saved[1], saved[2], saved[3], saved[4], saved[5]
		*listFlag, *fwVersion = savedBools[0], savedBools[1]
	})
}

func TestSelectCommand(t *testing.T) {
	resetCommandFlags(t)

	cmd, err := selectCommand(nil)
	require.NoError(t, err)
	assert.Nil(t, cmd)

	_, err = selectCommand([]string{"0x200000"})
	assert.Error(t, err, "stray arguments")

	*downloadFile = "data.bin"
	cmd, err = selectCommand([]string{"0x200000", "0x10000"})
	require.NoError(t, err)
	assert.Equal(t, "download", cmd.name)

	_, err = selectCommand([]string{"0x200000"})
	assert.Error(t, err, "missing size")
	_, err = selectCommand([]string{"lram", "16"})
	assert.Error(t, err, "bad address")

	*uploadFile = "data.bin"
	_, err = selectCommand([]string{"0x200000", "0x10000"})
	assert.Error(t, err, "two commands")
	*downloadFile = ""

	cmd, err = selectCommand([]string{"0x06004000"})
	require.NoError(t, err)
	assert.Equal(t, "upload", cmd.name)
	*uploadFile = ""

	*execFile = "prog.bin"
	*resetFlags = "bogus"
	_, err = selectCommand([]string{"0x06004000"})
	assert.Error(t, err, "bad reset flags")
	*resetFlags = "3"
	cmd, err = selectCommand([]string{"0x06004000"})
	require.NoError(t, err)
	assert.Equal(t, "exec", cmd.name)
	*execFile = ""

	*runAddr = "0x06004000"
	cmd, err = selectCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "run", cmd.name)
	*runAddr = ""

	*dumpFile = "bios.bin"
	cmd, err = selectCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "dump", cmd.name)
	*dumpFile = ""

	*listFlag = true
	cmd, err = selectCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "list", cmd.name)
	assert.NotNil(t, cmd.local)
}

// startTarget serves a simulated Saturn on one end of a pipe. The returned
// channel is closed once the monitor stops.
func startTarget(t *testing.T) (*client.Client, *memory.RAM, *memory.Recorder, <-chan struct{}) {
	hostConn, targetConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	mem := memory.NewSaturnRAM([]byte("SEGA SEGASATURN "))
	exec := &memory.Recorder{}
	mon := monitor.New(usbdc.NewConnChannel(targetConn, 5*time.Millisecond), mem, exec, nil)
	done := make(chan struct{})
	go func() {
		mon.Serve(ctx, 0)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		hostConn.Close()
		targetConn.Close()
		<-done
	})
	return client.New(usbdc.NewConnChannel(hostConn, 50*time.Millisecond)), mem, exec, done
}

func TestCommands(t *testing.T) {
	resetCommandFlags(t)
	c, mem, exec, served := startTarget(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir, err := ioutil.TempDir("", "satlink")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.bin")
	require.NoError(t, ioutil.WriteFile(in, []byte("0123456789abcdef"), 0644))
	require.NoError(t, upload(ctx, c, in, 0x06010000))

	out := filepath.Join(dir, "out.bin")
	require.NoError(t, download(ctx, c, out, 0x06010000, 16))
	got, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), got)

	*dumpFile = filepath.Join(dir, "bios.bin")
	cmd, err := selectCommand(nil)
	require.NoError(t, err)
	require.NoError(t, cmd.handler(ctx, c))
	bios, err := ioutil.ReadFile(*dumpFile)
	require.NoError(t, err)
	assert.Len(t, bios, biosSize)
	assert.Equal(t, []byte("SEGA SEGASATURN "), bios[:16])
	*dumpFile = ""

	assert.Error(t, upload(ctx, c, filepath.Join(dir, "missing.bin"), 0x06010000))

	require.NoError(t, execute(ctx, c, in, 0x06004000, 1))
	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("no handoff")
	}
	b := make([]byte, 16)
	require.NoError(t, mem.Read(0x06004000, b))
	assert.Equal(t, []byte("0123456789abcdef"), b)
	assert.Equal(t, []uint32{0x06004000}, exec.Jumps())
	assert.Equal(t, []uint32{1}, exec.Resets())
}

// feedChannel returns its data once, then empty reads.
type feedChannel struct {
	data []byte
}

func (c *feedChannel) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, c.data)
	c.data = c.data[n:]
	return n, nil
}

func (c *feedChannel) Write(p []byte) (int, error) { return len(p), nil }

func TestConsole(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	msg := bytes.Repeat([]byte("hello saturn\n"), 10)
	var out bytes.Buffer
	require.NoError(t, console(ctx, &feedChannel{data: msg}, &out))
	assert.Equal(t, string(msg), out.String())
}
