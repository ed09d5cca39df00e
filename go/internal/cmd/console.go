package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcdev12/csschain/go/internal/bridge"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
)

var errUsage = errors.New("usage")

const consoleHelp = `commands:
  join <room> <name>   join a room
  start                start the game (host)
  edit <css>           replace the edit buffer
  seed                 load the prompt's starter CSS
  submit | cancel      submit or withdraw this turn's CSS
  next                 reveal the next result (host)
  all on|off           show every result locally
  lobby                return everyone to the lobby (host)
  timer <seconds>      set the turn length (host)
  clear                dismiss the last error
  state                print the current state
  quit`

// console drives a session from line-oriented commands.
type console struct {
	s   bridge.Session
	out io.Writer
}

func newConsole(s bridge.Session, out io.Writer) *console {
	return &console{s: s, out: out}
}

// run reads commands until in ends, ctx is done or the user quits. quit
// reports the last case.
func (c *console) run(ctx context.Context, in io.Reader) (quit bool, err error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stopped:
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	fmt.Fprintln(c.out, `type "help" for commands`)
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case line, ok := <-lines:
			if !ok {
				return false, <-scanErr
			}
			quit, err := c.exec(ctx, line)
			if quit {
				return true, nil
			}
			if errors.Is(err, errUsage) {
				fmt.Fprintln(c.out, consoleHelp)
			} else if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
		return false, nil
	case "join":
		code, name, _ := strings.Cut(rest, " ")
		if code == "" || strings.TrimSpace(name) == "" {
			return false, errUsage
		}
		return false, c.s.JoinRoom(ctx, code, strings.TrimSpace(name))
	case "start":
		return false, c.s.StartGame(ctx)
	case "edit":
		ok, err := c.s.Edit(ctx, rest)
		if err == nil && !ok {
			fmt.Fprintln(c.out, "edit ignored: already submitted or no active turn")
		}
		return false, err
	case "seed":
		ok, err := c.s.UseSeedCSS(ctx)
		if err == nil && !ok {
			fmt.Fprintln(c.out, "seed ignored: already submitted or no active turn")
		}
		return false, err
	case "submit":
		return false, c.s.Submit(ctx)
	case "cancel":
		return false, c.s.Cancel(ctx)
	case "next":
		return false, c.s.AdvanceReveal(ctx)
	case "all":
		switch rest {
		case "on":
			return false, c.s.SetRevealAll(ctx, true)
		case "off":
			return false, c.s.SetRevealAll(ctx, false)
		}
		return false, errUsage
	case "lobby":
		return false, c.s.ReturnToLobby(ctx)
	case "timer":
		sec, err := strconv.Atoi(rest)
		if err != nil {
			return false, errUsage
		}
		return false, c.s.UpdateTimerSettings(ctx, sec)
	case "clear":
		return false, c.s.ClearError(ctx)
	case "state":
		v, err := c.s.View(ctx)
		if err != nil {
			return false, err
		}
		return false, c.printState(v)
	default:
		return false, errUsage
	}
}

func (c *console) printState(v coordinator.View) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
