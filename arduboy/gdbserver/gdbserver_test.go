package gdbserver

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/valerio/arduboy-emu/arduboy/debug"
	"github.com/valerio/arduboy-emu/arduboy/system"
)

// newTestSession wires a Session to one end of a loopback TCP connection,
// returning the client end for a fake GDB client to talk through. TCP's
// buffering (unlike net.Pipe) lets the command write and the ack write
// happen independently of read timing, matching how a real GDB client talks
// to the session without hand-synchronizing both sides.
func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			serverCh <- conn
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server := <-serverCh
	t.Cleanup(func() { server.Close() })

	return &Session{conn: server, reader: bufio.NewReader(server)}, client
}

func newTestSystem() *system.System {
	return system.NewSystem(system.ATmega32u4)
}

// roundTrip sends a raw packet, runs Process on its own goroutine, reads the
// reply (without the session's leading '+' ACK), acks it, and returns the
// action Process decided on.
func roundTrip(t *testing.T, sess *Session, client net.Conn, sys *system.System, packet string) (Action, string) {
	t.Helper()

	type result struct {
		action Action
		err    error
	}
	done := make(chan result, 1)
	go func() {
		a, err := sess.Process(sys)
		done <- result{a, err}
	}()

	if _, err := client.Write([]byte(packet)); err != nil {
		t.Fatalf("write command: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply := string(buf[:n])
	// A framed command is ACKed with '+' before any reply packet. If the ACK
	// arrived on its own, give a reply packet a moment to follow.
	if strings.HasPrefix(reply, "+") {
		reply = reply[1:]
		if reply == "" {
			client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			if n, err := client.Read(buf); err == nil {
				reply = string(buf[:n])
			}
		}
	}

	if _, err := client.Write([]byte("+")); err != nil {
		t.Fatalf("write ack: %v", err)
	}

	r := <-done
	if r.err != nil {
		t.Fatalf("Process: %v", r.err)
	}
	return r.action, reply
}

func TestHaltReasonQuery(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	action, reply := roundTrip(t, sess, client, sys, "$?#3f")
	if action != ActionNone {
		t.Fatalf("action = %v, want ActionNone", action)
	}
	if reply != "$S05#b8" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestReadRegistersReportsRegisterFile(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()
	sys.Mem.SetReg(0, 0xAB)
	sys.CPU.SREG = 0x80
	sys.CPU.SP = 0x08FF
	sys.CPU.PC = 0x100

	_, reply := roundTrip(t, sess, client, sys, "$g#67")
	if len(reply) < 70 {
		t.Fatalf("reply too short: %q", reply)
	}
	if reply[1:3] != "ab" {
		t.Errorf("R0 = %q, want ab", reply[1:3])
	}
}

func TestInsertAndRemoveBreakpoint(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	roundTrip(t, sess, client, sys, "$Z0,200,2#aa")
	if !sys.Breakpoints[0x100] {
		t.Fatalf("expected breakpoint at word addr 0x100")
	}

	roundTrip(t, sess, client, sys, "$z0,200,2#aa")
	if sys.Breakpoints[0x100] {
		t.Fatalf("expected breakpoint removed")
	}
}

func TestInsertWatchpointWiresDebugger(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	// addr 0x800010 maps to data-space offset 0x10, write watchpoint (type 2).
	roundTrip(t, sess, client, sys, "$Z2,800010,1#aa")

	if idx := sys.Debugger.FindWatchpoint(0x10, debug.WatchWrite); idx < 0 {
		t.Fatalf("expected watchpoint registered at 0x10")
	}
}

func TestContinueAndStepReturnActions(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	action, _ := roundTrip(t, sess, client, sys, "$c#63")
	if action != ActionContinue {
		t.Fatalf("action = %v, want ActionContinue", action)
	}
}

func TestStepReturnsAction(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	action, _ := roundTrip(t, sess, client, sys, "$s#73")
	if action != ActionStep {
		t.Fatalf("action = %v, want ActionStep", action)
	}
}

func TestDetachSetsDone(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	action, _ := roundTrip(t, sess, client, sys, "$D#44")
	if action != ActionDisconnect || !sess.Done {
		t.Fatalf("expected disconnect+done, got action=%v done=%v", action, sess.Done)
	}
}

func TestCtrlCSynthesizesHaltQuery(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()

	action, reply := roundTrip(t, sess, client, sys, "\x03")
	if action != ActionNone {
		t.Fatalf("action = %v, want ActionNone", action)
	}
	if reply != "$S05#b8" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDataOffsetMapsEitherAddressForm(t *testing.T) {
	if got := dataOffset(0x800010); got != 0x10 {
		t.Errorf("dataOffset(0x800010) = %#x, want 0x10", got)
	}
	if got := dataOffset(0x10); got != 0x10 {
		t.Errorf("dataOffset(0x10) = %#x, want 0x10", got)
	}
}

func TestReadMemoryFlashWindow(t *testing.T) {
	sess, client := newTestSession(t)
	sys := newTestSystem()
	sys.Mem.Flash[0x10] = 0xDE
	sys.Mem.Flash[0x11] = 0xAD

	_, reply := roundTrip(t, sess, client, sys, "$m10,2#00")
	if !strings.HasPrefix(reply, "$dead#") {
		t.Fatalf("reply = %q, want payload dead", reply)
	}
}
