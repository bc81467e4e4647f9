package eventloop

import (
	"context"
	"fmt"
	"log"

	"circle-to-search/src/hotkey"
	"circle-to-search/src/session"
	"circle-to-search/src/singleinstance"
	"circle-to-search/src/tray"
)

// Runner executes one pipeline run and delivers it to target.
type Runner interface {
	Execute(ctx context.Context, target session.ResultTarget) (session.Report, error)
}

// Loop is the single-threaded coordinator for hotkey, tray and run-once
// triggers. Runs execute on their own goroutine so the loop keeps serving
// triggers; a trigger during a run is rejected as busy.
type Loop struct {
	runner         Runner
	srv            singleinstance.Server
	busy           bool
	results        chan result
	triggers       chan struct{}
	defaultTooltip string

	// newLocalTarget builds the target for hotkey and tray triggers.
	newLocalTarget func() session.ResultTarget
}

type result struct {
	report session.Report
	err    error
	conn   singleinstance.Conn
}

// New creates a loop around runner. srv may be nil to serve local triggers only.
func New(runner Runner, srv singleinstance.Server) *Loop {
	return &Loop{
		runner:         runner,
		srv:            srv,
		results:        make(chan result, 1),
		triggers:       make(chan struct{}, 4),
		defaultTooltip: "Circle to Search",
		newLocalTarget: func() session.ResultTarget { return session.PopupTarget{} },
	}
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		tray.UpdateTooltip("Circle to Search: searching...")
	} else {
		tray.UpdateTooltip(l.defaultTooltip)
	}
}

// Trigger requests a run. Safe to call from any goroutine; never blocks.
func (l *Loop) Trigger() {
	select {
	case l.triggers <- struct{}{}:
	default:
		log.Printf("Trigger: queue full, dropping")
	}
}

// StartHotkey registers a global hotkey that posts triggers into the loop.
func (l *Loop) StartHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(combo, l.Trigger)
}

// Run serves triggers until ctx is cancelled, then closes the server.
func (l *Loop) Run(ctx context.Context) error {
	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := l.srv.Close(); err != nil {
				log.Printf("Resident: close failed: %v", err)
			}
		}()
		if p := l.srv.Port(); p > 0 {
			log.Printf("Resident listening on 127.0.0.1:%d", p)
			tray.SetAboutExtra(fmt.Sprintf("Resident TCP port: %d", p))
		}
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			defer close(reqCh)
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					return
				}
				select {
				case reqCh <- conn:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggers:
			l.start(ctx, l.newLocalTarget(), nil)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			req := conn.Request()
			l.start(ctx, session.DelegatedTarget{Conn: conn, OutputToStdout: req.OutputToStdout}, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) start(ctx context.Context, target session.ResultTarget, conn singleinstance.Conn) {
	if l.busy {
		log.Printf("Loop: run in progress, rejecting trigger")
		_ = target.OnFailure(session.ErrBusy)
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	l.setBusy(true)
	go func() {
		rep, err := l.runner.Execute(ctx, target)
		l.results <- result{report: rep, err: err, conn: conn}
	}()
}

func (l *Loop) handleResult(res result) {
	defer l.setBusy(false)
	if res.conn != nil {
		_ = res.conn.Close()
	}
	if res.err != nil {
		log.Printf("Loop: run ended: %v", res.err)
		return
	}
	log.Printf("Loop: run %d done (%s) in %v", res.report.ID, res.report.Kind, res.report.Duration)
}
