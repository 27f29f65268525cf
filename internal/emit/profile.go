package emit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/pkg/profiler"
)

// WriteProfile submits the reconciliation artifact to the profiling engine
// and writes the returned summary as JSON next to it. The caller treats
// failures as non-fatal: a profile is descriptive, never load-bearing.
func WriteProfile(ctx context.Context, client profiler.Client, reconPath string) (string, error) {
	f, err := os.Open(reconPath)
	if err != nil {
		return "", eris.Wrapf(err, "emit: open artifact %s", reconPath)
	}
	defer f.Close()

	title := strings.TrimSuffix(filepath.Base(reconPath), filepath.Ext(reconPath))
	summary, err := client.Profile(ctx, f, title)
	if err != nil {
		return "", eris.Wrap(err, "emit: profile artifact")
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "emit: encode profile summary")
	}

	out := reconPath + ".profile.json"
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "emit: write profile summary %s", out)
	}

	zap.L().Info("emit: profile summary written", zap.String("path", out))
	return out, nil
}
