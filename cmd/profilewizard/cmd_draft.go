package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kingrea/profile-wizard/internal/bootstrap"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

// statusCmd prints the review summary of the saved draft
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which sections of the saved draft are complete",
	RunE:  runStatus,
}

// submitCmd sends the saved draft without opening the wizard
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the saved draft to the profile service",
	Long: `Moves the saved draft to the review step and submits it, applying the
same checks as the wizard. The draft is cleared only when the service accepts it.`,
	RunE: runSubmit,
}

// resetCmd clears the saved draft
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the saved draft",
	RunE:  runReset,
}

type sectionSummary struct {
	Section  profile.Section `json:"section"`
	Title    string          `json:"title"`
	Step     int             `json:"step"`
	Count    int             `json:"count"`
	Complete bool            `json:"complete"`
}

type statusSummary struct {
	FullName        string           `json:"full_name"`
	ProfileComplete bool             `json:"profile_complete"`
	Sections        []sectionSummary `json:"sections"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	session, err := openWorkspace()
	if err != nil {
		return err
	}
	defer session.Close()

	state := session.Engine.State()
	summary := statusSummary{
		FullName:        state.Draft.BasicInfo.FullName,
		ProfileComplete: state.ProfileComplete(),
	}
	for _, status := range state.Review {
		summary.Sections = append(summary.Sections, sectionSummary{
			Section:  status.Section,
			Title:    status.Section.Title(),
			Step:     int(status.Step),
			Count:    status.Count,
			Complete: status.Complete,
		})
	}
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printStatus(out, summary)
	return nil
}

func printStatus(out io.Writer, summary statusSummary) {
	name := summary.FullName
	if name == "" {
		name = "(no name yet)"
	}
	fmt.Fprintf(out, "Draft for %s\n", name)
	for _, s := range summary.Sections {
		marker := "✓"
		if !s.Complete {
			marker = "○"
		}
		fmt.Fprintf(out, "  %s %-16s %d\n", marker, s.Title, s.Count)
	}
	if summary.ProfileComplete {
		fmt.Fprintln(out, "All required sections are filled in.")
	} else {
		fmt.Fprintln(out, "Some sections are still empty.")
	}
}

func runSubmit(cmd *cobra.Command, args []string) error {
	session, err := openWorkspace()
	if err != nil {
		return err
	}
	defer session.Close()

	eng := session.Engine
	for eng.CurrentStep() != profile.StepReview {
		if !eng.Next() {
			if info := eng.LastError(); info != nil {
				return info
			}
			return fmt.Errorf("cannot reach the review step from step %d", eng.CurrentStep())
		}
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	ref, err := eng.Submit(ctx)
	if err != nil {
		var info *wizard.ErrorInfo
		if errors.As(err, &info) {
			return errors.New(info.Message)
		}
		return err
	}
	msg := ref.Message
	if msg == "" {
		msg = "Profile created successfully"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", msg, ref.ID)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		return errors.New("refusing to discard the draft without --yes")
	}
	session, err := openWorkspace()
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Store.Clear(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared.")
	return nil
}

func openWorkspace(opts ...bootstrap.Option) (*bootstrap.Session, error) {
	dir, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	return openSession(dir, opts...)
}
