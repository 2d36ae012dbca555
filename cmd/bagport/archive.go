package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/meigma/bagport/archive"
)

func newSerializeCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "serialize <dir>",
		Short: "Write a directory into a single archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Format
			}
			kind, err := archive.ParseKind(format)
			if err != nil {
				return err
			}
			out, err := archive.Serialize(cmd.Context(), args[0], kind, archive.SerializeWithLogger(a.logger))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "serialization: tar, tar.gz, tar.bz2, zip or directory")
	return cmd
}

func newDeserializeCmd(a *app) *cobra.Command {
	var noPreserve bool
	cmd := &cobra.Command{
		Use:   "deserialize <archive>",
		Short: "Extract an archive beside itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := archive.Deserialize(cmd.Context(), args[0],
				archive.DeserializeWithPreserveMode(a.cfg.PreserveMode && !noPreserve),
				archive.DeserializeWithLogger(a.logger))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPreserve, "no-preserve-mode", false, "ignore archived permission bits")
	return cmd
}

func newInspectCmd(_ *app) *cobra.Command {
	var human bool
	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of an archive without extracting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				size := fmt.Sprint(e.Size)
				if human {
					size = units.HumanSize(float64(e.Size))
				}
				if e.IsDir {
					size = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Mode.Perm(), size, e.Path)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&human, "human", "H", false, "print sizes in human-readable units")
	return cmd
}
