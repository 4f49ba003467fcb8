// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/config"
	"github.com/jeranaias/tutorcito/internal/export"
	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of input after showing a prompt.
// *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// historyPath returns the REPL history file in the config directory.
func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "repl_history")
}

// newLiner creates a line editor with persisted history.
func newLiner() *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if f, err := os.Open(historyPath()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return line
}

// closeLiner saves history with owner-only permissions and restores the
// terminal.
func closeLiner(line *liner.State) {
	path := historyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-oriented interface: slash commands manage sessions and
// any other line is sent to the active session.
type REPL struct {
	core     *chat.Core
	printer  *Printer
	newTitle string
}

// NewREPL creates a REPL over core.
func NewREPL(core *chat.Core, printer *Printer, newSessionTitle string) *REPL {
	if newSessionTitle == "" {
		newSessionTitle = config.DefaultNewSessionTitle
	}
	return &REPL{core: core, printer: printer, newTitle: newSessionTitle}
}

// Run reads lines until /quit, EOF or an aborted prompt. Replies are
// printed as they land.
func (r *REPL) Run(ctx context.Context, in LineReader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := r.core.Subscribe()
	defer unsubscribe()
	go r.printReplies(ctx, events)

	r.printer.Notice("tutorcito. Escribe /help para ver los comandos.")
	if sess, ok := r.core.Snapshot().Active(); ok {
		thread, _ := r.core.Thread(sess.ID)
		r.printer.Thread(sess, thread)
	}

	for {
		line, err := in.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		more, err := r.Handle(ctx, line)
		if err != nil {
			r.printer.Error(describe(err))
		}
		if !more {
			return nil
		}
	}
}

func (r *REPL) prompt() string {
	if sess, ok := r.core.Snapshot().Active(); ok {
		return util.TruncateWidth(sess.Title, 20) + "> "
	}
	return "tutorcito> "
}

// printReplies prints assistant messages and failed replies until ctx
// ends or the core closes.
func (r *REPL) printReplies(ctx context.Context, events <-chan chat.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.printEvent(ev)
		}
	}
}

func (r *REPL) printEvent(ev chat.Event) {
	switch ev.Kind {
	case chat.EventMessageAppended:
		if ev.Message == nil || !ev.Message.IsFrom(model.SenderAssistant) {
			return
		}
		if ev.SessionID == r.core.Snapshot().ActiveID {
			r.printer.Message(*ev.Message)
			return
		}
		if sess, err := r.sessionTitle(ev.SessionID); err == nil {
			r.printer.Notice("Nueva respuesta en %q", sess)
		}
	case chat.EventReplyFailed:
		r.printer.Error(fmt.Errorf("la respuesta no llegó: %w", ev.Err))
	}
}

func (r *REPL) sessionTitle(id model.SessionID) (string, error) {
	sess, _, err := r.core.Transcript(id)
	return sess.Title, err
}

// Handle runs one input line. It returns false when the REPL should exit.
func (r *REPL) Handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}
	if !strings.HasPrefix(line, "/") {
		return true, r.send(ctx, line)
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	logger.Component("repl").Debug("command", "name", cmd, "args", len(args))

	switch cmd {
	case "/quit", "/exit", "/q":
		return false, nil
	case "/help", "/?":
		r.printHelp()
		return true, nil
	case "/new":
		return true, r.newSession(strings.TrimSpace(strings.TrimPrefix(line, "/new")))
	case "/list", "/ls":
		state := r.core.Snapshot()
		r.printer.Sessions(state.Sessions, state.ActiveID, state.Pending)
		return true, nil
	case "/select", "/s":
		return true, r.selectSession(args)
	case "/rm", "/remove":
		return true, r.removeSession(args)
	case "/clear":
		r.core.ClearSelection()
		r.printer.Notice("Ninguna conversación seleccionada")
		return true, nil
	case "/thread", "/show":
		return true, r.showThread()
	case "/search":
		query := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
		r.printer.Sessions(r.core.Search(query), r.core.Snapshot().ActiveID, nil)
		return true, nil
	case "/export":
		return true, r.exportActive(args)
	case "/status":
		state := r.core.Snapshot()
		replies := r.core.Replies()
		r.printer.Status(replies.Summary(), replies.Delay(), state.Sessions, state.Pending)
		return true, nil
	default:
		return true, fmt.Errorf("comando desconocido %s (usa /help)", cmd)
	}
}

// describe adds a hint to core errors printed at the prompt.
func describe(err error) error {
	switch model.KindOf(err) {
	case model.KindNoActiveSession:
		return fmt.Errorf("%w (usa /new o /select)", err)
	case model.KindNotFound:
		return fmt.Errorf("%w (usa /list para ver las conversaciones)", err)
	default:
		return err
	}
}

// send puts line in the draft and submits it.
func (r *REPL) send(ctx context.Context, line string) error {
	r.core.SetDraft(line)
	sub, err := r.core.Submit(ctx)
	if errors.Is(err, model.ErrNoActiveSession) {
		return errors.New("no hay conversación activa; usa /new o /select")
	}
	if err != nil {
		return err
	}
	if sub.Queued {
		r.printer.Notice("(en cola)")
	}
	return nil
}

func (r *REPL) newSession(title string) error {
	if title == "" {
		title = r.newTitle
	}
	sess, err := r.core.StartSession(title)
	if err != nil {
		return err
	}
	r.printer.Notice("Conversación creada: %s", sess.Title)
	return nil
}

// sessionArg resolves a 1-based index argument, or the active session
// when there is no argument.
func (r *REPL) sessionArg(args []string) (model.Session, error) {
	if len(args) == 0 {
		if sess, ok := r.core.Snapshot().Active(); ok {
			return sess, nil
		}
		return model.Session{}, model.ErrNoActiveSession
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return model.Session{}, fmt.Errorf("número de conversación inválido: %s", args[0])
	}
	return r.core.SessionAt(n)
}

func (r *REPL) selectSession(args []string) error {
	if len(args) == 0 {
		return errors.New("uso: /select <n>")
	}
	sess, err := r.sessionArg(args)
	if err != nil {
		return err
	}
	if err := r.core.Select(sess.ID); err != nil {
		return err
	}
	return r.showThread()
}

func (r *REPL) removeSession(args []string) error {
	sess, err := r.sessionArg(args)
	if err != nil {
		return err
	}
	if err := r.core.RemoveSession(sess.ID); err != nil {
		return err
	}
	r.printer.Notice("Conversación eliminada: %s", sess.Title)
	return nil
}

func (r *REPL) showThread() error {
	sess, ok := r.core.Snapshot().Active()
	if !ok {
		return model.ErrNoActiveSession
	}
	sess, thread, err := r.core.Transcript(sess.ID)
	if err != nil {
		return err
	}
	r.printer.Thread(sess, thread)
	return nil
}

// exportActive writes the active session: /export <format> [path].
func (r *REPL) exportActive(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("uso: /export <%s> [ruta]", strings.Join(export.Formats, "|"))
	}
	sess, ok := r.core.Snapshot().Active()
	if !ok {
		return model.ErrNoActiveSession
	}
	sess, thread, err := r.core.Transcript(sess.ID)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Times = r.printer.times
	exp, err := export.ForFormat(args[0], opts)
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	written, err := export.ExportToFile(export.NewTranscript(sess, thread), exp, path, opts)
	if err != nil {
		return err
	}
	r.printer.Notice("Exportado a %s", written)
	return nil
}

func (r *REPL) printHelp() {
	r.printer.Heading("Comandos")
	r.printer.Notice("  /new [título]        crear y seleccionar una conversación")
	r.printer.Notice("  /list                listar conversaciones")
	r.printer.Notice("  /select <n>          seleccionar la conversación n")
	r.printer.Notice("  /rm [n]              eliminar la conversación n (o la activa)")
	r.printer.Notice("  /clear               quitar la selección")
	r.printer.Notice("  /thread              mostrar la conversación activa")
	r.printer.Notice("  /search <texto>      buscar por título")
	r.printer.Notice("  /export <fmt> [ruta] exportar la conversación activa")
	r.printer.Notice("  /status              respuestas en curso y ajustes")
	r.printer.Notice("  /quit                salir")
}
