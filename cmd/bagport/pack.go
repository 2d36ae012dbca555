package main

import (
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/bagport"
	"github.com/meigma/bagport/archive"
	"github.com/meigma/bagport/bag"
)

type packFlags struct {
	format     string
	profile    string
	algorithms []string
	info       []string
	workers    int
}

func newPackCmd(a *app) *cobra.Command {
	var f packFlags
	cmd := &cobra.Command{
		Use:   "pack <bag-dir>",
		Short: "Finalize a bag and serialize it",
		Long: `Writes the bag declaration, bag-info.txt and manifests for <bag-dir>,
validates the bag against the profile and serializes it beside the
directory. The archive path is printed on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.packOptions(cmd, f)
			if err != nil {
				return err
			}
			out, err := bagport.Pack(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "serialization: tar, tar.gz, tar.bz2, zip or directory")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "bag profile to validate against")
	cmd.Flags().StringSliceVarP(&f.algorithms, "algorithm", "a", nil, "manifest checksum algorithm (repeatable)")
	cmd.Flags().StringArrayVarP(&f.info, "info", "i", nil, `extra bag-info.txt field as "Label: value" (repeatable)`)
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent checksum workers (0 uses all CPUs)")
	return cmd
}

// packOptions merges the configured settings with the flags that were set.
func (a *app) packOptions(cmd *cobra.Command, f packFlags) ([]bagport.Option, error) {
	format := a.cfg.Format
	if cmd.Flags().Changed("format") {
		format = f.format
	}
	kind, err := archive.ParseKind(format)
	if err != nil {
		return nil, err
	}

	algorithms := a.cfg.Algorithms
	if cmd.Flags().Changed("algorithm") {
		algorithms = f.algorithms
	}
	workers := a.cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = f.workers
	}

	info, err := a.cfg.Info()
	if err != nil {
		return nil, err
	}
	for _, line := range f.info {
		extra, err := bag.ParseFields(strings.NewReader(line))
		if err != nil {
			return nil, fmt.Errorf("--info %q: %w", line, err)
		}
		maps.Copy(info, extra)
	}

	p, err := a.loadProfile(f.profile)
	if err != nil {
		return nil, err
	}

	opts := []bagport.Option{
		bagport.WithFormat(kind),
		bagport.WithAlgorithms(algorithms...),
		bagport.WithBagInfo(info),
		bagport.WithWorkers(workers),
		bagport.WithLogger(a.logger),
	}
	if p != nil {
		opts = append(opts, bagport.WithProfile(p))
	}
	return opts, nil
}

type unpackFlags struct {
	profile    string
	noVerify   bool
	noPreserve bool
	sequence   bool
}

func newUnpackCmd(a *app) *cobra.Command {
	var f unpackFlags
	cmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Extract, verify and validate a serialized bag",
		Long: `Extracts <archive> into a directory named after it, verifies the bag's
checksums and validates it against the profile. The bag directory is
printed on success. With --sequence the resource identifiers follow in
import order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile(f.profile)
			if err != nil {
				return err
			}
			opts := []bagport.Option{
				bagport.WithVerify(!f.noVerify),
				bagport.WithPreserveMode(a.cfg.PreserveMode && !f.noPreserve),
				bagport.WithWorkers(a.cfg.Workers),
				bagport.WithLogger(a.logger),
			}
			if p != nil {
				opts = append(opts, bagport.WithProfile(p))
			}

			u, err := bagport.Unpack(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.Dir())
			if !f.sequence {
				return nil
			}
			seq, err := u.Sequence(cmd.Context(), a.cfg.Importer(""), a.importerOptions()...)
			if err != nil {
				return err
			}
			return printSequence(cmd, seq)
		},
	}
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "bag profile to validate against")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "skip checksum verification")
	cmd.Flags().BoolVar(&f.noPreserve, "no-preserve-mode", false, "ignore archived permission bits")
	cmd.Flags().BoolVar(&f.sequence, "sequence", false, "print resource identifiers in import order")
	return cmd
}
