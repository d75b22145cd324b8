package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"componentgen/internal/config"
	"componentgen/internal/logx"
	"componentgen/internal/runner"
)

type Command struct {
	Config  string `help:"Path to componentgen.yaml." type:"path" short:"c"`
	Root    string `help:"Component library root." type:"path" default:"."`
	Verbose bool   `help:"Enable verbose output." short:"v"`

	Mirror   MirrorCmd   `cmd:"" help:"Create missing doc and display skeletons."`
	Manifest ManifestCmd `cmd:"" help:"Regenerate the barrel module and the global type declaration."`
	Docs     DocsCmd     `cmd:"" help:"Generate pending docs through the configured provider."`
	Catalog  CatalogCmd  `cmd:"" help:"Write the component catalog and sidebar."`
	All      AllCmd      `cmd:"" help:"Run mirror, manifest, docs and catalog."`
	Serve    ServeCmd    `cmd:"" help:"Serve component sources and docs to the playground."`
	Watch    WatchCmd    `cmd:"" help:"Regenerate on source changes."`
}

// App carries the global flags into every subcommand.
type App struct {
	Ctx     context.Context
	Log     *log.Logger
	Config  string
	Root    string
	Verbose bool
}

// Load reads the configuration for the selected root.
func (a *App) Load() (*config.Config, error) {
	return config.Load(a.Root, a.Config)
}

// Project loads the configuration and opens the project.
func (a *App) Project() (*runner.Project, error) {
	cfg, err := a.Load()
	if err != nil {
		return nil, err
	}
	return runner.Open(cfg, a.Log)
}

func main() {
	command := new(Command)
	kctx := kong.Parse(
		command,
		kong.Name("componentgen"),
		kong.Description("Component library generator: mirrors, manifests, docs and catalog."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := kctx.Run(&App{
		Ctx:     ctx,
		Log:     logx.New(os.Stderr, command.Verbose),
		Config:  command.Config,
		Root:    command.Root,
		Verbose: command.Verbose,
	})
	kctx.FatalIfErrorf(err)
}
