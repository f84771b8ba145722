// Command lexhl highlights source files according to user-editable keyword and comment rules.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dpinela/lexhl/internal/config"
	"github.com/dpinela/lexhl/internal/highlight"
	"github.com/dpinela/lexhl/internal/rules"
	"github.com/dpinela/lexhl/internal/ruletext"
)

// app holds the state shared by all subcommands. It is filled in by setup, after
// flags have been parsed.
type app struct {
	cfgFile  string
	rulesDir string
	lang     string
	logLevel string

	stdin          io.Reader
	stdout, stderr io.Writer

	cfg    *config.Config
	log    zerolog.Logger
	files  *ruletext.FileStore
	store  *rules.Store
	engine *highlight.Engine
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lexhl",
		Short: "Rule-driven syntax highlighter",
		Long: `lexhl highlights source files using per-language keyword lists and comment markers.

Rules are kept as plain text files under the rules directory:
  <lang>/keywords.txt                   comma-separated keywords
  <lang>/comments/singleline.txt        single-line comment marker
  <lang>/comments/multiline-start.txt   multi-line comment start marker
  <lang>/comments/multiline-end.txt     multi-line comment end marker

The language of a file is its extension, unless overridden with --lang.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: <user config dir>/lexhl/config.toml)")
	pf.StringVar(&a.rulesDir, "rules-dir", "", "directory holding the highlighting rules (overrides the config file)")
	pf.StringVarP(&a.lang, "lang", "l", "", "language to highlight as, instead of the one given by the file extension")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config file)")

	root.AddCommand(
		newCatCmd(a),
		newSpansCmd(a),
		newRulesCmd(a),
		newAddKeywordCmd(a),
		newSetCommentsCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads the configuration and builds the rule store and highlighting engine.
// A broken config file is reported, but doesn't stop the command from running with
// the defaults.
func (a *app) setup() error {
	cfg, cfgErr := config.Load(a.cfgFile)
	a.cfg = cfg
	if a.logLevel == "" {
		a.logLevel = cfg.LogLevel
	}
	level, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", a.logLevel)
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, NoColor: !isTerminal(a.stderr)}).
		Level(level).With().Timestamp().Logger()
	if cfgErr != nil {
		a.log.Warn().Err(cfgErr).Msg("using default configuration")
	}
	if a.rulesDir == "" {
		a.rulesDir = cfg.RulesDir
	}
	if a.rulesDir == "" {
		if a.rulesDir, err = config.DefaultRulesDir(); err != nil {
			return err
		}
	}
	a.files = ruletext.NewFileStore(a.rulesDir)
	a.files.Log = a.log
	a.store = rules.NewStore(a.files, rules.WithLogger(a.log))
	a.engine = highlight.NewEngine(a.store, highlight.WithLogger(a.log))
	a.log.Debug().Str("rules", a.rulesDir).Msg("ready")
	return nil
}

// languageFor returns the language a file should be highlighted as: the one set
// with --lang, or the one its extension maps to in the config.
func (a *app) languageFor(name string) string {
	if a.lang != "" {
		return a.lang
	}
	lang := highlight.LanguageForFile(name)
	if lang == highlight.PlainText {
		return lang
	}
	return a.cfg.LanguageFor(lang)
}

func (a *app) open(name string) *highlight.Document {
	return highlight.NewDocumentAs(a.engine, name, a.languageFor(name))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("lexhl: " + err.Error() + "\n")
		os.Exit(1)
	}
}
