package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ocp4mco/ocp4mco/internal/config"
)

// Init writes a sample configuration to outputPath. An existing file is only
// replaced with force.
func Init(_ context.Context, outputPath string, force bool) error {
	if !force {
		_, err := os.Stat(outputPath)
		if err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", outputPath)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", outputPath, err)
		}
	}

	if err := writeSample(config.Sample(), outputPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Configuration written to %s\n\n", outputPath)
	_, _ = fmt.Fprintln(stdout, "Next steps:")
	_, _ = fmt.Fprintln(stdout, "  1. Set cluster names, base domains and regions")
	_, _ = fmt.Fprintln(stdout, "  2. Point deployment.install.pullSecretPath at your pull secret")
	_, _ = fmt.Fprintf(stdout, "  3. Run: ocp4mco deploy -c %s\n", outputPath)
	return nil
}
