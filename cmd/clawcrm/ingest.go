package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kyrillus/ClawCRM/internal/ingest"
)

func newIngestCmd(flags *rootFlags) *cobra.Command {
	var (
		dateStr string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [note]",
		Short: "Preview and confirm a meeting note",
		Long: "Extracts people, a summary, and topics from the note and shows how each name\n" +
			"resolves against your roster. Nothing reaches the roster until you confirm.\n" +
			"Reads the note from stdin when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := noteText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var date time.Time
			if dateStr != "" {
				date, err = parseDateFlag(dateStr)
				if err != nil {
					return err
				}
			}

			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			pv, err := a.pipeline.Preview(cmd.Context(), text, date)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), pv)

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(),
					"\nRun `clawcrm ingest confirm %s` to apply, optionally with --assign/--skip.\n", pv.Token)
				return nil
			}

			conf, err := a.pipeline.Confirm(cmd.Context(), pv.Token, nil)
			if err != nil {
				return err
			}
			printConfirmation(cmd.OutOrStdout(), conf)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "meeting date (YYYY-MM-DD or RFC3339, default now)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm immediately with default assignments")

	cmd.AddCommand(newIngestConfirmCmd(flags))
	return cmd
}

func newIngestConfirmCmd(flags *rootFlags) *cobra.Command {
	var (
		assigns []string
		skips   []string
	)

	cmd := &cobra.Command{
		Use:   "confirm <token>",
		Short: "Apply a previewed ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := parseAssignments(assigns, skips)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			conf, err := a.pipeline.Confirm(cmd.Context(), args[0], assignments)
			if err != nil {
				return err
			}
			printConfirmation(cmd.OutOrStdout(), conf)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&assigns, "assign", nil, `link an extracted name to a person id, e.g. --assign "Sara Chen=12"`)
	cmd.Flags().StringArrayVar(&skips, "skip", nil, "drop an extracted name entirely")
	return cmd
}

func noteText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read note from stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("empty note: pass it as an argument or on stdin")
	}
	return text, nil
}

func parseAssignments(assigns, skips []string) ([]ingest.Assignment, error) {
	var out []ingest.Assignment
	for _, a := range assigns {
		name, idStr, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("bad --assign %q, want name=person_id", a)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad person id in --assign %q: %w", a, err)
		}
		out = append(out, ingest.Assignment{Name: strings.TrimSpace(name), PersonID: id})
	}
	for _, name := range skips {
		out = append(out, ingest.Assignment{Name: strings.TrimSpace(name), Skip: true})
	}
	return out, nil
}

func parseDateFlag(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable --date %q, want YYYY-MM-DD or RFC3339", raw)
}

func printPreview(w io.Writer, pv *ingest.Preview) {
	fmt.Fprintf(w, "Preview %s (%s)\n", pv.Token, pv.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "  Summary: %s\n", pv.Summary)
	if len(pv.Topics) > 0 {
		fmt.Fprintf(w, "  Topics:  %s\n", strings.Join(pv.Topics, ", "))
	}
	for _, nr := range pv.Resolutions {
		switch {
		case nr.IsOwner:
			fmt.Fprintf(w, "  %-20s (you)\n", nr.Name)
		case nr.Best != nil:
			fmt.Fprintf(w, "  %-20s -> #%d %s (%.2f)\n", nr.Name, nr.Best.PersonID, nr.Best.Name, nr.Best.Score)
		case len(nr.Candidates) > 0:
			fmt.Fprintf(w, "  %-20s ?  no match above threshold, closest #%d %s (%.2f)\n",
				nr.Name, nr.Candidates[0].PersonID, nr.Candidates[0].Name, nr.Candidates[0].Score)
		default:
			fmt.Fprintf(w, "  %-20s +  new person\n", nr.Name)
		}
	}
}

func printConfirmation(w io.Writer, conf *ingest.Confirmation) {
	fmt.Fprintf(w, "Stored meeting #%d with %d people", conf.MeetingID, len(conf.PersonIDs))
	if len(conf.Created) > 0 {
		fmt.Fprintf(w, " (new: %s)", strings.Join(conf.Created, ", "))
	}
	if conf.Linked > 0 {
		fmt.Fprintf(w, ", %d relationship(s) strengthened", conf.Linked)
	}
	fmt.Fprintln(w)
}
