package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cfoust/modswap/pkg/config"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Debug bool `help:"Whether to enable debug logging."`

	Packs struct {
		Configs []string `arg:"" optional:"" name:"configs" help:"Configuration files." type:"file"`
	} `cmd:"" help:"List every pack and the keys it cannot provide."`

	Play struct {
		Pack    string        `help:"Pack to activate before firing." default:"Default"`
		Seconds float64       `help:"How long to hold the trigger down." default:"3"`
		Frame   time.Duration `help:"Length of a frame." default:"16ms"`
		Configs []string      `arg:"" optional:"" name:"configs" help:"Configuration files." type:"file"`
	} `cmd:"" help:"Fire a weapon in an empty arena and report what happened."`

	Select struct {
		Configs []string `arg:"" optional:"" name:"configs" help:"Configuration files." type:"file"`
	} `cmd:"" help:"Pick the active pack from a menu."`

	Config struct {
	} `cmd:"" help:"Write the default configuration to standard output."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("modswap"),
		kong.Description("swap content packs and pool projectiles at runtime"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	var err error
	switch ctx.Command() {
	case "packs", "packs <configs>":
		err = packsCommand(CLI.Packs.Configs)
	case "play", "play <configs>":
		err = playCommand(CLI.Play.Configs)
	case "select", "select <configs>":
		err = selectCommand(CLI.Select.Configs)
	case "config":
		os.Stdout.Write(config.DEFAULT)
	}

	if err != nil {
		writeError(err)
	}
}
