// Package console is an interactive shell that runs suite steps one at a
// time against a live browser.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golemhq/golem-sub001/internal/actions"
	"github.com/golemhq/golem-sub001/internal/config"
	"github.com/golemhq/golem-sub001/internal/execution"
	"github.com/golemhq/golem-sub001/internal/pageobject"
	"github.com/golemhq/golem-sub001/internal/ports"
	"github.com/golemhq/golem-sub001/internal/script"
	"github.com/golemhq/golem-sub001/pkg/apperr"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const consoleName = "Console"

var errExit = errors.New("exit")

type Interface struct {
	settings execution.Settings
	factory  ports.BrowserFactory
	logger   *zap.Logger

	exec    *execution.Context
	actions *actions.Actions
	disp    *script.Dispatcher
	out     io.Writer
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Factory ports.BrowserFactory
}

func NewInterface(params Params) *Interface {
	return &Interface{
		settings: execution.SettingsFromConfig(params.Config.ExecutionConfig),
		factory:  params.Factory,
		logger:   params.Logger.With(zap.String(logg.Layer, consoleName)),
	}
}

// Run reads steps from in until EOF, "exit" or ctx ends. Each line is one
// step in suite syntax, such as "click: login.submit". Browsers opened during
// the session are closed on return.
func (i *Interface) Run(ctx context.Context, in io.Reader, out io.Writer, pages *pageobject.Registry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	i.out = out
	i.exec = execution.New(execution.Params{
		TestName: "interactive",
		Settings: i.settings,
		Factory:  i.factory,
		Logger:   i.logger,
	})
	i.actions = actions.New(actions.Params{Exec: i.exec})
	i.disp = script.NewDispatcher(pages)

	defer func() {
		if err := i.exec.CloseAll(context.WithoutCancel(ctx)); err != nil {
			i.logger.Warn("Failed to close browsers", zap.Error(err))
		}
	}()

	i.printHelp()

	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")

		var input string

		select {
		case <-ctx.Done():
			fmt.Fprintln(out)

			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)

				return nil
			}

			input = strings.TrimSpace(line)
		}

		if input == "" {
			continue
		}

		if err := i.handleCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}

			i.logger.Debug("Command error", zap.Error(err))
			fmt.Fprintf(out, "error [%s]: %v\n", apperr.Code(err), err)
		}
	}
}

func (i *Interface) handleCommand(ctx context.Context, input string) error {
	switch input {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		return errExit
	case "steps":
		for n, s := range i.exec.Steps() {
			fmt.Fprintf(i.out, "%3d  %s\n", n+1, s.Message)
		}

		return nil
	case "actions":
		fmt.Fprintln(i.out, strings.Join(script.Actions(), "  "))

		return nil
	default:
		return i.executeStep(ctx, input)
	}
}

func (i *Interface) executeStep(ctx context.Context, input string) error {
	call, err := script.ParseCall(input)
	if err != nil {
		return err
	}

	before := len(i.exec.Steps())

	if err := i.disp.Run(ctx, i.actions, call); err != nil {
		return err
	}

	for _, s := range i.exec.Steps()[before:] {
		fmt.Fprintf(i.out, "  %s\n", s.Message)
	}

	if call.Store != "" {
		v, _ := i.exec.Retrieve(call.Store)
		fmt.Fprintf(i.out, "  %s = %v\n", call.Store, v)
	}

	return nil
}

func (i *Interface) printHelp() {
	help := `Type one step per line, using suite syntax:
  navigate: http://localhost:8080
  send_keys: [login.username, admin]
  {get_element_text: "#greeting", store: greeting}

Commands:
  help, h        show this message
  actions        list available actions
  steps          print the step log
  exit, quit, q  close the browser and leave`

	fmt.Fprintln(i.out, help)
}
