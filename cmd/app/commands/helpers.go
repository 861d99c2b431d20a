// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"golang.org/x/term"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// Shutdowner is implemented by the server and client containers.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Prompter asks the user for input.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

type ioPrompter struct {
	streams IOTuple
	reader  *bufio.Reader
}

// NewPrompter returns a Prompter reading from streams.Reader. Secrets are read without
// echo when the reader is a terminal.
func NewPrompter(streams IOTuple) Prompter {
	return &ioPrompter{streams: streams, reader: bufio.NewReader(streams.Reader)}
}

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

func (p *ioPrompter) Prompt(label string) (string, error) {
	if _, err := fmt.Fprint(p.streams.Writer, label); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *ioPrompter) PromptSecret(label string) (string, error) {
	f, ok := p.streams.Reader.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Prompt(label)
	}

	if _, err := fmt.Fprint(p.streams.Writer, label); err != nil {
		return "", err
	}
	secret, err := readPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(p.streams.Writer)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(secret), nil
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container Shutdowner, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// validateFormat accepts the "text" and "json" output formats.
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// writeJSON writes v as indented JSON for machine consumption.
func writeJSON(w io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}
