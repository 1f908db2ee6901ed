package mcu

import (
	"context"
	"net"
	"testing"
	"time"

	"sesboard/protocol"
)

func TestMCUReceivesAndSends(t *testing.T) {
	host, board := net.Pipe()
	defer board.Close()

	got := make(chan protocol.Message, 4)
	m := NewMCU()
	m.SetHandler(func(msg protocol.Message) { got <- msg })
	if err := m.Attach(context.Background(), host); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer m.Close()

	boardLink := protocol.NewLink(board, protocol.DestHost)
	go boardLink.Send(&protocol.Status{Time: 42, Duty: 7})

	select {
	case msg := <-got:
		st, ok := msg.(*protocol.Status)
		if !ok || st.Time != 42 || st.Duty != 7 {
			t.Errorf("Unexpected message %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for status")
	}
	if m.LastSeen().IsZero() {
		t.Error("Expected LastSeen to be set")
	}

	// Read the command on the board side
	cmds := make(chan protocol.Message, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := board.Read(buf)
		if err != nil {
			return
		}
		boardLink.Feed(buf[:n])
		boardLink.Poll(func(msg protocol.Message) { cmds <- msg }, nil)
	}()

	if err := m.SetDuty(200); err != nil {
		t.Fatalf("SetDuty failed: %v", err)
	}
	select {
	case msg := <-cmds:
		cmd, ok := msg.(*protocol.Command)
		if !ok || cmd.Op != protocol.CmdSetDuty || cmd.Value != 200 {
			t.Errorf("Unexpected command %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for command")
	}
}

func TestMCUSendWithoutConnection(t *testing.T) {
	m := NewMCU()
	if err := m.Motor(true); err != ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if m.IsConnected() {
		t.Error("New MCU should not be connected")
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close on unconnected MCU: %v", err)
	}
}

func TestMCUCloseStopsReader(t *testing.T) {
	host, board := net.Pipe()
	defer board.Close()

	m := NewMCU()
	if err := m.Attach(context.Background(), host); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := m.Attach(context.Background(), host); err == nil {
		t.Error("Expected second Attach to fail")
	}

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the reader")
	}
}
