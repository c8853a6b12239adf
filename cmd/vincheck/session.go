package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/WessleyAI/vincheck/engine/checker"
	"github.com/WessleyAI/vincheck/engine/present"
)

// session is one terminal user: a Checker, the last submitted input, and the
// user's expand/collapse choices.
type session struct {
	ck   *checker.Checker
	ui   *present.UIState
	live bool

	mu    sync.Mutex // guards out and input
	out   io.Writer
	input string
}

// newSession wires a Checker to the session. When live is set every published
// snapshot is rendered; otherwise only the final one is.
func newSession(lookup checker.Lookup, opts checker.Options, out io.Writer, live bool) *session {
	s := &session{ui: present.NewUIState(), out: out, live: live}
	if live {
		opts.Listener = checker.ListenerFunc(s.render)
	}
	s.ck = checker.New(lookup, opts)
	return s
}

func (s *session) render(snap checker.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, strings.Repeat("-", 48))
	present.Render(s.out, present.Build(s.input, snap, s.ui))
}

func (s *session) submit(ctx context.Context, raw string) checker.Snapshot {
	s.mu.Lock()
	s.input = raw
	s.mu.Unlock()

	snap := s.ck.Submit(ctx, raw)
	if !s.live {
		s.render(snap)
	}
	return snap
}

func (s *session) println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, a...)
}

// serve reads lines from in until EOF, :quit, or ctx is done.
func (s *session) serve(ctx context.Context, in io.Reader) error {
	s.println(`Enter a 17-character VIN, or :help for commands.`)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.handle(ctx, sc.Text()); quit {
			return nil
		}
	}
	return sc.Err()
}

const helpText = `Commands:
  <VIN>              look up a vehicle
  :vehicle           toggle the vehicle panel
  :recalls [N]       toggle the recalls panel, or recall N
  :complaints [N]    toggle the complaints panel, or complaint N
  :show              redraw the current result
  :quit              exit`

// handle runs one input line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(strings.TrimSpace(line), ":") {
		s.submit(ctx, line)
		return false
	}

	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(fields) == 0 {
		s.println("unknown command; try :help")
		return false
	}
	switch cmd := fields[0]; cmd {
	case "q", "quit", "exit":
		return true
	case "h", "help":
		s.println(helpText)
	case "show":
		s.render(s.ck.Current())
	default:
		sec, ok := present.ParseSection(cmd)
		if !ok {
			s.println("unknown command " + strconv.Quote(cmd) + "; try :help")
			return false
		}
		if len(fields) == 1 {
			s.ui.ToggleSection(sec)
		} else {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || sec == present.SectionVehicle {
				s.println("usage: :" + cmd + " N (N starts at 1)")
				return false
			}
			s.ui.ToggleItem(sec, n-1)
		}
		s.render(s.ck.Current())
	}
	return false
}
