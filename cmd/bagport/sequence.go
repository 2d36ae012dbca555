package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/bagport/importer"
)

func newSequenceCmd(a *app) *cobra.Command {
	var source, destination string
	cmd := &cobra.Command{
		Use:   "sequence <export-dir>",
		Short: "Print resource identifiers oldest first",
		Long: `Reads every exported description under <export-dir> and prints the
resource identifiers in the order an import would create them. Resources
without a last-modified time come first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Importer(args[0])
			if cmd.Flags().Changed("source") {
				cfg.SourceURI = source
			}
			if cmd.Flags().Changed("destination") {
				cfg.DestinationURI = destination
			}
			seq, err := importer.NewSequencer(cmd.Context(), cfg, a.importerOptions()...)
			if err != nil {
				return err
			}
			return printSequence(cmd, seq)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "base URI of the exporting repository")
	cmd.Flags().StringVar(&destination, "destination", "", "base URI of the importing repository")
	return cmd
}

func (a *app) importerOptions() []importer.Option {
	return []importer.Option{importer.WithLogger(a.logger)}
}

func printSequence(cmd *cobra.Command, seq *importer.Sequencer) error {
	out := cmd.OutOrStdout()
	for id := range seq.All() {
		if _, err := fmt.Fprintln(out, id); err != nil {
			return err
		}
	}
	return nil
}
