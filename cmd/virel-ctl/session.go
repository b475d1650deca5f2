package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/virel-protocol/virel-go/pkg/transport"
	"github.com/virel-protocol/virel-go/pkg/wire"
)

// Session is an interactive shell bound to one gate connection.
type Session struct {
	conn    *transport.ClientConn
	rl      *readline.Instance
	timeout time.Duration

	nextID uint32
}

// NewSession creates a session over an established connection.
func NewSession(conn *transport.ClientConn, timeout time.Duration) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "virel> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Session{
		conn:    conn,
		rl:      rl,
		timeout: timeout,
		nextID:  1,
	}, nil
}

// Close releases the readline instance.
func (s *Session) Close() error {
	return s.rl.Close()
}

// Run starts the interactive command loop.
func (s *Session) Run() {
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		args := strings.Fields(input)
		cmd := strings.ToLower(args[0])
		if cmd == "quit" || cmd == "exit" || cmd == "q" {
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		if err := s.Execute(args); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		}
	}
}

// Execute runs a single command.
func (s *Session) Execute(args []string) error {
	cmd := strings.ToLower(args[0])
	switch cmd {
	case "help", "?":
		s.printHelp()
		return nil
	case "mode", "m":
		return s.cmdMode()
	case "status", "s":
		return s.cmdStatus()
	case "vote", "v":
		return s.cmdVote(args[1:])
	case "watch", "w":
		return s.cmdWatch(args[1:])
	case "ping":
		return s.conn.SendPing(s.nextID)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (s *Session) printHelp() {
	fmt.Fprint(s.rl.Stdout(), `
VIREL Gate Commands:
  mode                        - Show the committed mode
  status                      - Show full gate status
  vote <domain> <HALT|RES> [epoch]
                              - Cast a vote (epoch defaults to current)
  watch [duration]            - Print mode notifications (default 60s)
  ping                        - Send a transport ping
  help                        - Show this help
  quit                        - Exit
`)
}

// roundTrip sends a request and waits for the matching response,
// printing any mode notifications that arrive in between.
func (s *Session) roundTrip(op wire.Operation, payload []byte) (*wire.Response, error) {
	req := &wire.Request{
		MessageID: s.nextID,
		Operation: op,
		Payload:   payload,
	}
	s.nextID++

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.conn.Send(data); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(s.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errors.New("timed out waiting for response")
		}

		frame, err := s.conn.Receive(remaining)
		if err != nil {
			return nil, err
		}

		switch s.classify(frame) {
		case wire.MessageTypeResponse:
			resp, err := wire.DecodeResponse(frame)
			if err != nil {
				return nil, err
			}
			if resp.MessageID != req.MessageID {
				continue
			}
			return resp, nil
		default:
			// Notification printed, control answered; keep waiting.
		}
	}
}

// classify peeks a frame, printing notifications and answering control
// messages as a side effect.
func (s *Session) classify(frame []byte) wire.MessageType {
	msgType, err := wire.PeekMessageType(frame)
	if err != nil {
		return wire.MessageTypeUnknown
	}

	switch msgType {
	case wire.MessageTypeNotification:
		if notif, err := wire.DecodeModeNotification(frame); err == nil {
			s.printNotification(notif)
		}
	case wire.MessageTypeControl:
		s.conn.HandleControl(frame)
	}
	return msgType
}

func (s *Session) printNotification(notif *wire.ModeNotification) {
	fmt.Fprintf(s.rl.Stdout(), "[NOTIFY] mode=%s epoch=%d lamport=%d\n",
		notif.Mode, notif.Epoch, notif.Lamport)
}

func (s *Session) cmdMode() error {
	resp, err := s.roundTrip(wire.OpGetMode, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp)
	}

	mode, err := wire.DecodeModePayload(resp.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.rl.Stdout(), "Mode:  %s\nEpoch: %d.%d\n", mode.Mode, mode.Epoch, mode.Lamport)
	return nil
}

func (s *Session) cmdStatus() error {
	status, err := s.fetchStatus()
	if err != nil {
		return err
	}

	out := s.rl.Stdout()
	fmt.Fprintf(out, "Mode:      %s\n", status.Mode)
	fmt.Fprintf(out, "State:     %s\n", status.State)
	fmt.Fprintf(out, "Epoch:     %d.%d\n", status.Epoch, status.Lamport)
	fmt.Fprintf(out, "Outcome:   %s\n", status.Outcome)
	if status.State == "PENDING_SAFE" {
		fmt.Fprintf(out, "Remaining: %d ticks\n", status.Remaining)
	}
	if status.Halted {
		fmt.Fprintln(out, "Halted:    yes (epoch range exhausted)")
	}
	return nil
}

func (s *Session) fetchStatus() (*wire.StatusPayload, error) {
	resp, err := s.roundTrip(wire.OpGetStatus, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, responseError(resp)
	}
	return wire.DecodeStatusPayload(resp.Payload)
}

func (s *Session) cmdVote(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: vote <domain> <HALT|RES> [epoch]")
	}

	domain := args[0]
	token := strings.ToUpper(args[1])

	var epoch uint64
	if len(args) >= 3 {
		e, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid epoch %q", args[2])
		}
		epoch = e
	} else {
		status, err := s.fetchStatus()
		if err != nil {
			return fmt.Errorf("fetching current epoch: %w", err)
		}
		epoch = status.Epoch
	}

	payload, err := wire.NewPayload(&wire.SubmitVotePayload{
		Domain: domain,
		Vote:   token,
		Epoch:  epoch,
	})
	if err != nil {
		return err
	}

	resp, err := s.roundTrip(wire.OpSubmitVote, payload)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp)
	}

	status, err := wire.DecodeStatusPayload(resp.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.rl.Stdout(), "Vote recorded: %s %s in epoch %d\n", domain, token, epoch)
	fmt.Fprintf(s.rl.Stdout(), "Gate now: mode=%s state=%s outcome=%s epoch=%d.%d\n",
		status.Mode, status.State, status.Outcome, status.Epoch, status.Lamport)
	return nil
}

func (s *Session) cmdWatch(args []string) error {
	duration := 60 * time.Second
	if len(args) >= 1 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q", args[0])
		}
		duration = d
	}

	fmt.Fprintf(s.rl.Stdout(), "Watching for mode notifications for %v...\n", duration)

	deadline := time.Now().Add(duration)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}

		frame, err := s.conn.Receive(remaining)
		if err != nil {
			if isTimeout(err) {
				return nil
			}
			return err
		}
		s.classify(frame)
	}
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, io.EOF)
}

// responseError renders an error response as a Go error.
func responseError(resp *wire.Response) error {
	msg := wire.DecodeErrorPayload(resp.Payload).Message
	if msg == "" {
		return fmt.Errorf("gate returned %s", resp.Status)
	}
	return fmt.Errorf("gate returned %s: %s", resp.Status, msg)
}
