package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/stash/internal/model"
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Annotate a link and add it to your stash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			link, err := a.links.Add(cmd.Context(), u.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderLink(link))
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stashed links, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			links, err := a.links.Load(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(links)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderList(links))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print links as JSON")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <link-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a link from your stash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.links.Remove(cmd.Context(), u.ID, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ Removed"))
			return nil
		},
	}
}

func renderList(links []model.Link) string {
	if len(links) == 0 {
		return headerStyle.Render("No links yet. Add one with `stash add <url>`.")
	}
	out := headerStyle.Render(fmt.Sprintf("%d link(s)", len(links)))
	for _, l := range links {
		out += "\n" + renderLink(l)
	}
	return out
}
