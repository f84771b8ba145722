package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dpinela/lexhl/internal/highlight"
	"github.com/dpinela/lexhl/internal/pathwatch"
	"github.com/dpinela/lexhl/internal/rules"
	"github.com/dpinela/lexhl/internal/termesc"
)

func newWatchCmd(a *app) *cobra.Command {
	var number bool
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Show a highlighted file, redrawing it when it or its rules change",
		Long: `Show a highlighted file on the terminal, and redraw it whenever the file or the
rules of its language change on disk. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &renderer{palette: &a.cfg.TextStyle, color: true, number: number, tabWidth: a.cfg.TabWidth}
			return a.watch(cmd, args[0], r)
		},
	}
	cmd.Flags().BoolVarP(&number, "number", "n", false, "number output lines")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, name string, r *renderer) error {
	w, err := pathwatch.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	doc := a.open(name)
	lang := doc.Language()
	fileChanges := make(chan struct{}, 1)
	ruleChanges := make(chan struct{}, 1)
	if err := w.Add(name, fileChanges); err != nil {
		return errors.WithMessagef(err, "watching %s", name)
	}
	for _, p := range rules.Paths(lang) {
		if err := w.Add(a.files.Filename(p), ruleChanges); err != nil {
			return errors.WithMessagef(err, "watching rules for %s", lang)
		}
	}

	ctx := cmd.Context()
	delay := a.cfg.WatchDelay()
	fileSettled := pathwatch.Debounce(fileChanges, delay, ctx.Done())
	rulesSettled := pathwatch.Debounce(ruleChanges, delay, ctx.Done())

	draw := func() error {
		text, err := a.readInput(name)
		if err != nil {
			a.log.Warn().Err(err).Msg("file unavailable")
			text = ""
		}
		return drawScreen(a.stdout, r, text, doc)
	}
	if err := draw(); err != nil {
		return err
	}
	for {
		select {
		case <-fileSettled:
			a.log.Debug().Str("file", name).Msg("file changed")
		case <-rulesSettled:
			a.log.Debug().Str("lang", lang).Msg("rules changed")
			a.store.Reload(lang)
		case err := <-w.Errors():
			a.log.Error().Err(err).Msg("watch error")
			continue
		case <-ctx.Done():
			return nil
		}
		if err := draw(); err != nil {
			return err
		}
	}
}

func drawScreen(w io.Writer, r *renderer, text string, doc *highlight.Document) error {
	buf := append([]byte(termesc.CursorHome), termesc.ClearScreen...)
	buf = r.render(buf, text, doc.Highlight(text))
	_, err := w.Write(buf)
	return err
}
