package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allisson/filevault/internal/config"
)

// RunInitClientConfig writes the default client profile to path. An existing profile is
// only replaced with force.
func RunInitClientConfig(writer io.Writer, path string, force bool) error {
	if path == "" {
		path = config.DefaultClientConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("client config already exists at %s (use --force to overwrite)", path)
		}
		return fmt.Errorf("failed to create client config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := config.DefaultClientConfig().Write(f); err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer, "Wrote client config to %s\n", path)
	return err
}
