package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kyrillus/ClawCRM/internal/store"
)

func newPeopleCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Inspect the roster",
	}
	cmd.AddCommand(
		newPeopleListCmd(flags),
		newPeopleShowCmd(flags),
		newPeopleSetCmd(flags),
		newPeopleSearchCmd(flags),
		newPeopleDeleteCmd(flags),
	)
	return cmd
}

func newPeopleSetCmd(flags *rootFlags) *cobra.Command {
	var (
		name    string
		phone   string
		email   string
		company string
		role    string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "set <id|name>",
		Short: "Update a person's contact details and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			person, err := lookupPerson(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}

			changed := false
			for _, f := range []struct {
				flag string
				dst  *string
				val  string
			}{
				{"name", &person.Name, name},
				{"phone", &person.Phone, phone},
				{"email", &person.Email, email},
				{"company", &person.Company, company},
				{"role", &person.Role, role},
			} {
				if cmd.Flags().Changed(f.flag) {
					*f.dst = f.val
					changed = true
				}
			}
			if cmd.Flags().Changed("tag") {
				person.Tags = tags
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to update: pass at least one of --name/--phone/--email/--company/--role/--tag")
			}

			if err := a.store.UpdatePerson(cmd.Context(), person); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s\n", person.ID, person.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&company, "company", "", "company")
	cmd.Flags().StringVar(&role, "role", "", "role or title")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "replace the tag set (repeatable)")
	return cmd
}

func newPeopleListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List everyone in the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			people, err := a.store.ListPeople(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range people {
				fmt.Fprintf(w, "#%-5d %s", p.ID, p.Name)
				if len(p.Tags) > 0 {
					fmt.Fprintf(w, "  [%s]", strings.Join(p.Tags, ", "))
				}
				fmt.Fprintln(w)
			}
			if len(people) == 0 {
				fmt.Fprintln(w, "No people yet. Ingest a meeting note to get started.")
			}
			return nil
		},
	}
}

func newPeopleShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show one person's context, meetings, and relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			person, err := lookupPerson(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "#%d %s\n", person.ID, person.Name)
			for _, f := range []struct{ label, val string }{
				{"Role", person.Role},
				{"Company", person.Company},
				{"Email", person.Email},
				{"Phone", person.Phone},
			} {
				if f.val != "" {
					fmt.Fprintf(w, "%s: %s\n", f.label, f.val)
				}
			}
			if len(person.Tags) > 0 {
				fmt.Fprintf(w, "Tags: %s\n", strings.Join(person.Tags, ", "))
			}
			if person.Context != "" {
				fmt.Fprintf(w, "\n%s\n", person.Context)
			}

			meetings, err := a.store.PersonMeetings(cmd.Context(), person.ID)
			if err != nil {
				return err
			}
			if len(meetings) > 0 {
				fmt.Fprintf(w, "\nMeetings (%d):\n", len(meetings))
				for _, m := range meetings {
					fmt.Fprintf(w, "  %s  %s\n", m.Date.Format("2006-01-02"), m.Summary)
				}
			}

			rels, err := a.store.ListRelationships(cmd.Context(), person.ID)
			if err != nil {
				return err
			}
			if len(rels) > 0 {
				fmt.Fprintf(w, "\nKnows:\n")
				for _, r := range rels {
					otherID := r.PersonA
					if otherID == person.ID {
						otherID = r.PersonB
					}
					other, err := a.store.GetPerson(cmd.Context(), otherID)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "  %s (%d shared meeting(s))\n", other.Name, r.Strength)
				}
			}
			return nil
		},
	}
}

func newPeopleSearchCmd(flags *rootFlags) *cobra.Command {
	var (
		semantic bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find people by name, or semantically over their context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			w := cmd.OutOrStdout()
			if semantic {
				vec, err := a.provider.Embed(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("embed query: %w", err)
				}
				matches, err := a.store.SearchPeopleByVector(cmd.Context(), vec, limit)
				if err != nil {
					return err
				}
				for _, m := range matches {
					fmt.Fprintf(w, "%.3f  #%-5d %s\n", m.Score, m.Person.ID, m.Person.Name)
				}
				if len(matches) == 0 {
					fmt.Fprintln(w, "No semantic matches.")
				}
				return nil
			}

			people, err := a.store.ListPeople(cmd.Context())
			if err != nil {
				return err
			}
			found := false
			for _, p := range people {
				if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
					fmt.Fprintf(w, "#%-5d %s\n", p.ID, p.Name)
					found = true
				}
			}
			if !found {
				fmt.Fprintln(w, "No matches.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&semantic, "semantic", false, "rank by context embedding instead of name substring")
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum semantic results")
	return cmd
}

func newPeopleDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Remove a person, their meeting links, and their relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			person, err := lookupPerson(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeletePerson(cmd.Context(), person.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d %s\n", person.ID, person.Name)
			return nil
		},
	}
}

// lookupPerson accepts a numeric id or an exact name.
func lookupPerson(ctx context.Context, s *store.Store, arg string) (*store.Person, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return s.GetPerson(ctx, id)
	}
	return s.FindPersonByName(ctx, arg)
}
