package main

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meigma/bagport/internal/config"
	"github.com/meigma/bagport/profile"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bagport",
		Short: "Move repository exports in and out of BagIt archives",
		Long: `bagport packages exported repository resources as BagIt bags and
prepares received bags for import.

Examples:
  bagport pack ./export --format tar.gz --profile profile.yaml
  bagport unpack ./export.tar.gz --profile profile.yaml
  bagport sequence ./export/data --source http://localhost:8080/rest \
      --destination https://repo.example.org/rest`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPackCmd(a),
		newUnpackCmd(a),
		newSerializeCmd(a),
		newDeserializeCmd(a),
		newInspectCmd(a),
		newValidateCmd(a),
		newSequenceCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "bagport",
		Level:  log.InfoLevel,
	})
	if a.verbose {
		handler.SetLevel(log.DebugLevel)
	}
	a.logger = slog.New(handler)
	return nil
}

// loadProfile returns the profile named by path, falling back to the
// configured one. It returns nil when neither is set.
func (a *app) loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		path = a.cfg.Profile
	}
	if path == "" {
		return nil, nil //nolint:nilnil // no profile configured
	}
	p, err := profile.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
