package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/judge0/llm-companion/internal/config"
	"github.com/judge0/llm-companion/internal/provider"
	"github.com/judge0/llm-companion/internal/relay"
)

func providersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect the provider catalog",
	}
	cmd.AddCommand(providersListCmd())
	return cmd
}

type providerEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Vendor        string `json:"vendor"`
	UpstreamModel string `json:"upstream_model"`
	Mapped        bool   `json:"mapped"`
}

func providersListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers and the upstream model each one maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			mapping := relay.NewModelMapping(cfg.Relay.DefaultModel, cfg.Relay.Models)
			return writeProviders(cmd.OutOrStdout(), buildProviderList(provider.Default(), mapping), jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func buildProviderList(registry *provider.Registry, mapping *relay.ModelMapping) []providerEntry {
	entries := make([]providerEntry, 0, registry.Len())
	for d := range registry.All() {
		entries = append(entries, providerEntry{
			ID:            d.ID,
			Name:          d.DisplayName,
			Vendor:        string(d.Vendor),
			UpstreamModel: mapping.Resolve(d.ID),
			Mapped:        mapping.Mapped(d.ID),
		})
	}
	return entries
}

func writeProviders(w io.Writer, entries []providerEntry, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tVENDOR\tUPSTREAM MODEL\n")
	for _, e := range entries {
		model := e.UpstreamModel
		if !e.Mapped {
			model += " (fallback)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Vendor, model)
	}
	return tw.Flush()
}
