package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dpinela/lexhl/internal/buffer"
	"github.com/dpinela/lexhl/internal/highlight"
	"github.com/dpinela/lexhl/internal/rules"
)

// readInput returns the contents of the named file, or of standard input if name is "-".
func (a *app) readInput(name string) (string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	return string(data), errors.Wrapf(err, "reading %s", name)
}

func inputNames(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

func newCatCmd(a *app) *cobra.Command {
	var colorMode string
	var number bool
	cmd := &cobra.Command{
		Use:   "cat [FILE...]",
		Short: "Print files with syntax highlighting",
		Long: `Print files with syntax highlighting, using ANSI escape codes.

With no FILE, or when FILE is -, read standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var useColor bool
			switch colorMode {
			case "always":
				useColor = true
			case "never":
			case "auto":
				useColor = isTerminal(a.stdout)
			default:
				return errors.Errorf("invalid --color value %q: must be auto, always or never", colorMode)
			}
			r := &renderer{palette: &a.cfg.TextStyle, color: useColor, number: number, tabWidth: a.cfg.TabWidth}
			for _, name := range inputNames(args) {
				text, err := a.readInput(name)
				if err != nil {
					return err
				}
				spans := a.open(docName(name)).Highlight(text)
				if _, err := a.stdout.Write(r.render(nil, text, spans)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&colorMode, "color", "auto", "when to use colors: auto, always or never")
	cmd.Flags().BoolVarP(&number, "number", "n", false, "number output lines")
	return cmd
}

func docName(name string) string {
	if name == "-" {
		return ""
	}
	return name
}

func newSpansCmd(a *app) *cobra.Command {
	var positions, merge bool
	cmd := &cobra.Command{
		Use:   "spans [FILE]",
		Short: "List the highlighted spans of a file",
		Long: `List the spans a file is split into, one per line: start, end, tag and text.

Offsets are in bytes, with the end excluded. With --positions, they are given as
line:column pairs instead, both counted from 1, with columns counted in characters.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := inputNames(args)[0]
			text, err := a.readInput(name)
			if err != nil {
				return err
			}
			sc := a.open(docName(name)).Tokenize(text)
			var buf *buffer.Buffer
			if positions {
				buf = buffer.FromString(text)
			}
			var spans []highlight.Span
			for sc.Scan() {
				spans = append(spans, sc.Span())
			}
			if err := sc.Err(); err != nil {
				a.log.Warn().Err(err).Msg("highlighting degraded")
			}
			if merge {
				spans = highlight.Coalesce(spans)
			}
			for _, s := range spans {
				if positions {
					start, end := buf.Position(s.Start), buf.Position(s.End)
					fmt.Fprintf(a.stdout, "%d:%d\t%d:%d\t%s\t%q\n", start.Y+1, start.X+1, end.Y+1, end.X+1, s.Tag, text[s.Start:s.End])
				} else {
					fmt.Fprintf(a.stdout, "%d\t%d\t%s\t%q\n", s.Start, s.End, s.Tag, text[s.Start:s.End])
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&positions, "positions", false, "print line:column positions instead of byte offsets")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge adjacent spans with the same tag")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [LANG...]",
		Short: "Show the highlighting rules for languages",
		Long:  "Show the highlighting rules for the given languages, or list the languages that have rules if none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				langs, err := a.files.Languages()
				if err != nil {
					return err
				}
				for _, lang := range langs {
					fmt.Fprintln(a.stdout, lang)
				}
				return nil
			}
			for i, lang := range args {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				printRules(a.stdout, lang, a.store.Snapshot(lang))
			}
			return nil
		},
	}
}

func printRules(w io.Writer, lang string, rs rules.RuleSet) {
	fmt.Fprintf(w, "[%s]\n", lang)
	fmt.Fprintf(w, "keywords:\t%s\n", strings.Join(rs.Keywords, " "))
	fmt.Fprintf(w, "single-line comment:\t%q\n", rs.Comments.SingleLine)
	fmt.Fprintf(w, "multi-line comment:\t%q %q\n", rs.Comments.MultiLineStart, rs.Comments.MultiLineEnd)
}

func newAddKeywordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-keyword LANG KEYWORD...",
		Short: "Add keywords to a language",
		Long: `Add keywords to a language and save them to its rules.

Keywords that are already present are skipped. A keyword may not contain commas
or line breaks, nor start or end with whitespace.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := args[0]
			for _, kw := range args[1:] {
				if err := a.engine.AddKeyword(lang, kw); err != nil {
					return errors.WithMessagef(err, "adding keyword %q to %s", kw, lang)
				}
			}
			a.log.Info().Str("lang", lang).Strs("keywords", args[1:]).Msg("keywords added")
			return nil
		},
	}
}

func newSetCommentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-comments LANG SINGLE MULTI-START MULTI-END",
		Short: "Set the comment markers of a language",
		Long: `Set the comment markers of a language and save them to its rules.

Pass an empty string to disable a kind of comment; multi-line comments are
disabled unless both of their markers are set. Markers can't end in a line break.

Keywords, brackets, semicolons and strings are matched before comments, so a
marker starting with one of ( ) { } [ ] ; " never opens a comment: with a
multi-line start of "(*", the "(" is highlighted as a paren instead. The same
goes for a marker that begins with a keyword.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := args[0]
			m := rules.CommentMarkers{SingleLine: args[1], MultiLineStart: args[2], MultiLineEnd: args[3]}
			if err := a.engine.UpdateCommentMarkers(lang, m); err != nil {
				return errors.WithMessagef(err, "setting comment markers for %s", lang)
			}
			a.log.Info().Str("lang", lang).Msg("comment markers updated")
			return nil
		},
	}
}
