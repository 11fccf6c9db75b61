package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/manifest"
)

type inspectReport struct {
	Location string             `json:"location"`
	Units    []mfe.UnitSnapshot `json:"units"`
	Changes  map[string]string  `json:"changes"`
	Failures []string           `json:"failures,omitempty"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand(root *rootOptions) *cobra.Command {
	var manifestPath string
	var location string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show which units a navigation would change",
		Long: `Inspect loads a unit manifest and reports, for the given location, which
applications would be loaded, mounted or unmounted. Route predicates that
fail are reported and their units marked SKIP_BECAUSE_BROKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			loc, err := url.Parse(location)
			if err != nil {
				return fmt.Errorf("invalid location %q: %w", location, err)
			}
			m, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}

			rt := mfe.NewRuntime(cfg, root.logger(cmd, cfg))
			defer rt.Close()

			report := inspectReport{Location: loc.String(), Changes: map[string]string{}}
			if err := rt.Errors().AddErrorHandler(mfe.NewFunctionalErrorHandler(func(err error) {
				report.Failures = append(report.Failures, err.Error())
			})); err != nil {
				return err
			}
			if err := m.Populate(rt); err != nil {
				return err
			}

			changes := rt.Changes(loc)
			for _, u := range changes.ToLoad {
				report.Changes[u.Name()] = "load"
			}
			for _, u := range changes.ToMount {
				report.Changes[u.Name()] = "mount"
			}
			for _, u := range changes.ToUnmount {
				report.Changes[u.Name()] = "unmount"
			}
			report.Units = rt.Snapshot()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "f", "", "unit manifest (YAML or TOML)")
	cmd.Flags().StringVarP(&location, "location", "l", "/", "navigation location")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func printReport(cmd *cobra.Command, report inspectReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Location: %s\n\n", report.Location)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tKIND\tSTATUS\tCHANGE")
	for _, u := range report.Units {
		change := report.Changes[u.Name]
		if change == "" {
			change = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Name, u.Kind, u.Status, change)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(out, "\nFailures:")
		for _, failure := range report.Failures {
			fmt.Fprintf(out, "  %s\n", failure)
		}
	}
	return nil
}
