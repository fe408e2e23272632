package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kyrillus/ClawCRM/internal/resolve"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Score a name against the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			people, err := a.store.ListPeople(cmd.Context())
			if err != nil {
				return err
			}
			roster := make([]resolve.RosterEntry, len(people))
			for i, p := range people {
				roster[i] = resolve.RosterEntry{ID: p.ID, Name: p.Name}
			}

			res := a.resolver.Resolve(args[0], roster)
			w := cmd.OutOrStdout()
			if a.resolver.IsOwner(args[0]) {
				fmt.Fprintf(w, "%q is you.\n", args[0])
				return nil
			}
			if len(res.Candidates) == 0 {
				fmt.Fprintf(w, "No candidates for %q.\n", args[0])
				return nil
			}
			for _, c := range res.Candidates {
				marker := " "
				if res.Best != nil && res.Best.PersonID == c.PersonID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %.2f  #%-5d %s\n", marker, c.Score, c.PersonID, c.Name)
			}
			return nil
		},
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Database counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"people: %d (embedded: %d)\nmeetings: %d\nrelationships: %d\n",
				st.People, st.Embedded, st.Meetings, st.Relationships)
			return nil
		},
	}
}
