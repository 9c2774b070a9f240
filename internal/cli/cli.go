// Package cli parses command-line arguments into the application
// configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/fieldflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating if the program should exit cleanly,
// or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("fieldflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fieldflow - computes derived analytics fields for a batch of entities
from a set of interdependent equations.

Usage:
  fieldflow [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to an .hcl analytics configuration file.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file.")
	cFlag := flagSet.String("c", "", "Path to the configuration file (shorthand).")
	fieldsFlag := flagSet.String("fields", "", "Comma-separated requested fields, overriding the configuration.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 10, "Number of concurrent entity evaluation workers.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	// Level names are validated by app.NewConfig below.
	logLevel := strings.ToLower(*logLevelFlag)

	var fields []string
	if *fieldsFlag != "" {
		for _, field := range strings.Split(*fieldsFlag, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:  path,
		Fields:      fields,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
