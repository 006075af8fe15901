package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

const usage = `Usage: pipeline [-config path] <command> [arguments]

Commands:
  run <source> <name> [-i instructions] [-r repeats]
        extract audio, transcribe, collect metadata, generate reports and facts
  extract-audio <source> [-f name] [-o dir]
  transcribe <audio> [-f name] [-o dir] [-n repeats]
  metadata <name> [-o dir]
  report <transcript> [-i instructions] [-m metadata] [-o dir] [-n repeats]
  facts <folder> [-o dir]
  watch
        process media dropped into the inbox folder
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:])
	stop()

	if err != nil {
		exitWithError(err)
	}
}

func run(ctx context.Context, configPath, command string, args []string) error {
	cmd, ok := commands[command]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return apperr.Newf(apperr.CodeValidation, "unknown command %q", command)
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(ctx, a, args)
}

func exitWithError(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted.")
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := apperr.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}
