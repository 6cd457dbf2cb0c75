package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/render"
	"skincare-backend/internal/wizard"
)

var errQuit = errors.New("quit")

type lineReader struct {
	scanner *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

// next returns the next trimmed line; end of input reads as ":quit".
func (l *lineReader) next() string {
	if !l.scanner.Scan() {
		return ":quit"
	}
	return strings.TrimSpace(l.scanner.Text())
}

type walkthrough struct {
	ctrl *wizard.Controller
	in   *lineReader
	out  io.Writer
	opts render.Options
}

func (w *walkthrough) run(ctx context.Context) error {
	fmt.Fprintln(w.out, "Commands: :back, :reset, :results, :quit. Press enter to keep the current answer.")
	for {
		var err error
		if w.ctrl.Session().AtResults() {
			err = w.results(ctx)
		} else {
			err = w.step(ctx)
		}
		if errors.Is(err, errQuit) {
			fmt.Fprintln(w.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (w *walkthrough) step(ctx context.Context) error {
	state := w.ctrl.State()
	step := w.ctrl.CurrentStep()
	fmt.Fprintf(w.out, "\nStep %d of %d: %s\n", state.CurrentStep, state.TotalSteps, step.Title)

	answers := make(map[profile.Field]any)
	for _, field := range step.Fields {
		cur := w.ctrl.Session().Profile.Snapshot()
		prompt := string(field)
		if cur.Has(field) {
			prompt += " [" + display(cur.Get(field, nil)) + "]"
		}
		fmt.Fprintf(w.out, "%s: ", prompt)

		line := w.in.next()
		if strings.HasPrefix(line, ":") && len(answers) > 0 {
			w.ctrl.Answer(answers)
		}
		handled, err := w.command(ctx, line)
		if handled || err != nil {
			return err
		}
		if line != "" {
			answers[field] = profile.ParseInput(field, line)
		}
	}
	w.ctrl.Answer(answers)
	return w.report(w.ctrl.Advance(ctx))
}

func (w *walkthrough) results(ctx context.Context) error {
	res, notice, err := w.ctrl.Results(ctx)
	if err != nil {
		return w.report(err)
	}
	if notice != nil {
		fmt.Fprintf(w.out, "\nNote: %s\n", notice.Message)
	}
	opts := w.opts
	opts.Name = w.ctrl.Session().Profile.Snapshot().String(profile.FieldName)
	fmt.Fprintln(w.out)
	fmt.Fprint(w.out, render.Markdown(res, opts))

	fmt.Fprint(w.out, "\n:regenerate, :back, :reset or :quit: ")
	line := w.in.next()
	if line == ":regenerate" {
		return w.report(w.ctrl.Regenerate(ctx))
	}
	handled, err := w.command(ctx, line)
	if !handled && err == nil {
		fmt.Fprintf(w.out, "Unknown command %q\n", line)
	}
	return err
}

// command applies a navigation command. handled is false for plain answers.
func (w *walkthrough) command(ctx context.Context, line string) (handled bool, err error) {
	switch line {
	case ":quit", ":q":
		return true, errQuit
	case ":back":
		w.ctrl.Retreat()
		return true, nil
	case ":reset":
		w.ctrl.Reset()
		fmt.Fprintln(w.out, "Starting over.")
		return true, nil
	case ":results":
		return true, w.report(w.ctrl.JumpToResults(ctx))
	}
	return false, nil
}

// report prints validation problems and swallows them so the user can
// correct the step.
func (w *walkthrough) report(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := profile.AsValidation(err); ok {
		fmt.Fprintf(w.out, "Please check your answers: %s\n", ve.Error())
		return nil
	}
	if errors.Is(err, wizard.ErrNotAtResults) {
		fmt.Fprintln(w.out, "Results are not ready yet.")
		return nil
	}
	return err
}

func display(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
