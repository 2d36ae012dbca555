package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/bagport/bag"
	"github.com/meigma/bagport/profile"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		profilePath string
		noVerify    bool
	)
	cmd := &cobra.Command{
		Use:   "validate <bag-dir>",
		Short: "Verify a bag and check it against a profile",
		Long: `Recomputes the checksums of an extracted bag and, when a profile is
configured, reports every field and structural rule it breaks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bag.Open(args[0])
			if err != nil {
				return err
			}
			var errs []error
			if !noVerify {
				if err := b.Verify(cmd.Context(), bag.WithWorkers(a.cfg.Workers), bag.WithLogger(a.logger)); err != nil {
					errs = append(errs, fmt.Errorf("verify bag: %w", err))
				}
			}
			p, err := a.loadProfile(profilePath)
			if err != nil {
				return err
			}
			if p != nil {
				if err := b.ValidateProfile(p, profile.WithLogger(a.logger)); err != nil {
					errs = append(errs, err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", b.Dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "bag profile to validate against")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	return cmd
}
