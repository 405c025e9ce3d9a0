package autoplay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// LogEntry is a message written by the strategy with log().
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// vars is what dobet() sees before each call.
type vars struct {
	Win        bool
	Balance    float64
	Profit     float64
	LastPayout float64
	LastStake  float64
	Bets       int
	Wins       int
	Losses     int
	WinStreak  int
	LoseStreak int
	NextBet    float64
}

// vm is a sandboxed goja runtime running a strategy. It is owned by one
// goroutine; only interrupt is safe to call from elsewhere.
type vm struct {
	runtime *goja.Runtime

	logsMu  sync.Mutex
	logs    []LogEntry
	maxLogs int

	stopRequested bool
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

var errNoDobet = errors.New("strategy must define a dobet() function")

func newVM() *vm {
	v := &vm{runtime: goja.New(), maxLogs: 200}
	v.injectGlobals()
	return v
}

func (v *vm) injectGlobals() {
	v.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		v.logsMu.Lock()
		if len(v.logs) >= v.maxLogs {
			v.logs = v.logs[1:]
		}
		v.logs = append(v.logs, LogEntry{Time: time.Now(), Message: strings.Join(parts, " ")})
		v.logsMu.Unlock()
		return goja.Undefined()
	})

	console := v.runtime.NewObject()
	console.Set("log", v.runtime.Get("log"))
	v.runtime.Set("console", console)

	v.runtime.Set("stop", func(goja.FunctionCall) goja.Value {
		v.stopRequested = true
		return goja.Undefined()
	})

	// No I/O and no dynamic code.
	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		v.runtime.Set(name, goja.Undefined())
	}
}

// load runs the strategy source once so it can define dobet().
func (v *vm) load(source string) error {
	err := v.runWithTimeout(scriptInitTimeout, func() error {
		if _, err := v.runtime.RunString(source); err != nil {
			return fmt.Errorf("strategy error: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, ok := goja.AssertFunction(v.runtime.Get("dobet")); !ok {
		return errNoDobet
	}
	return nil
}

func (v *vm) set(in vars) {
	r := v.runtime
	r.Set("win", in.Win)
	r.Set("balance", in.Balance)
	r.Set("profit", in.Profit)
	r.Set("lastpayout", in.LastPayout)
	r.Set("previousbet", in.LastStake)
	r.Set("bets", in.Bets)
	r.Set("wins", in.Wins)
	r.Set("losses", in.Losses)
	r.Set("winstreak", in.WinStreak)
	r.Set("losestreak", in.LoseStreak)
	r.Set("nextbet", in.NextBet)
}

// dobet calls the strategy and returns the stake multiplier it left in nextbet.
func (v *vm) dobet() (float64, error) {
	var next float64
	err := v.runWithTimeout(scriptCallTimeout, func() error {
		fn, ok := goja.AssertFunction(v.runtime.Get("dobet"))
		if !ok {
			return errNoDobet
		}
		if _, err := fn(goja.Undefined()); err != nil {
			return fmt.Errorf("dobet() error: %w", err)
		}
		val := v.runtime.Get("nextbet")
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return errors.New("nextbet is not set")
		}
		next = val.ToFloat()
		return nil
	})
	return next, err
}

func (v *vm) stopped() bool { return v.stopRequested }

func (v *vm) interrupt() { v.runtime.Interrupt("autoplay stopped") }

func (v *vm) getLogs() []LogEntry {
	v.logsMu.Lock()
	defer v.logsMu.Unlock()
	return append([]LogEntry(nil), v.logs...)
}

func (v *vm) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		// Interrupt a runaway script execution.
		v.runtime.Interrupt("script execution timeout")
		<-done
		v.runtime.ClearInterrupt()
		return errors.New("script timed out")
	}
}
