package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	goflags "github.com/jessevdk/go-flags"

	"github.com/MrSnakeDoc/sidemark/internal/config"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
)

// env carries what commands need from the process, replaceable in tests.
type env struct {
	stdout     io.Writer
	loadConfig func() *config.Config
	version    string
}

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Bookmarks *BookmarksCommand
	Popular   *PopularCommand
	Watch     *WatchCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(e *env) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "sidemarkctl"
	parser.LongDescription = "Look up Hatena bookmarks, star counts and popular pages from the command line."

	cmds := &commands{
		Bookmarks: &BookmarksCommand{env: e, globals: &globals},
		Popular:   &PopularCommand{env: e, globals: &globals},
		Watch:     &WatchCommand{env: e, globals: &globals},
	}

	parser.AddCommand("bookmarks", "Show bookmarks for a page", "Fetch the bookmark comments of a page and their star counts.", cmds.Bookmarks)
	parser.AddCommand("popular", "Show popular pages of a host", "List the most bookmarked pages of a host.", cmds.Popular)
	parser.AddCommand("watch", "Follow a running server", "Print panel messages a running server publishes on Redis Pub/Sub.", cmds.Watch)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	return run(&env{stdout: os.Stdout, loadConfig: config.Load, version: version}, args)
}

func run(e *env, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			_, _ = fmt.Fprintf(e.stdout, "sidemarkctl %s\n", e.version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(e)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}

// output picks the message printer for the global flags.
func output(e *env, g *GlobalFlags, order domain.SortOrder) *sink.Writer {
	if g != nil && g.JSON {
		return sink.NewJSONWriter(e.stdout)
	}
	return sink.NewTextWriter(e.stdout, order)
}

func newLogger(g *GlobalFlags) logger.Logger {
	level := "warn"
	if g != nil && g.LogLevel != "" {
		level = g.LogLevel
	}
	return logger.New(level, false)
}

// signalContext is cancelled on Ctrl-C so long fetches stop between batches.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
