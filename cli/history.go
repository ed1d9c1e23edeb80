package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/history"
)

func newHistoryCommand(deps Deps, g *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated profiles",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return argumentError(cmd, "--limit must not be negative")
			}
			return listHistory(cmd, deps, g, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of builds to show")
	return cmd
}

// listHistory prints recent builds as a table.
func listHistory(cmd *cobra.Command, deps Deps, g *globalOptions, limit int) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	out := deps.Stdout
	dbPath, err := cfg.HistoryPath()
	if err != nil {
		return common.NewError(common.ErrHistory, "", err)
	}
	if !common.FileExists(dbPath) {
		fmt.Fprintln(out, "No builds recorded.")
		if !cfg.History.Enabled {
			fmt.Fprintln(out, "Enable history in the config file: history.enabled: true")
		}
		return nil
	}

	store, err := history.Open(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No builds recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tPROFILE\tSSID\tUSERNAME\tSERVER\tPATH")
	fmt.Fprintln(w, "-------\t-------\t----\t--------\t------\t----")

	for _, e := range entries {
		// Truncate UUID for display
		shortID := e.ProfileUUID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), shortID, e.SSID, e.Username, e.RemoteAddress, e.OutputPath)
	}

	return w.Flush()
}
