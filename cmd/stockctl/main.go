package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/tshirt-stock/pkg/logger"
)

func main() {
	logger.Configure(os.Stderr, "console")
	err := newApp(os.Stdout).Run(os.Args)
	if err == nil {
		return
	}

	code := 1
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	log.Error().Err(err).Msg("stockctl failed")
	os.Exit(code)
}
