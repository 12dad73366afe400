package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kingrea/profile-wizard/internal/bootstrap"
	"github.com/kingrea/profile-wizard/internal/config"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

type recordingGateway struct {
	received []profile.Draft
}

func (g *recordingGateway) CreateProfile(_ context.Context, d profile.Draft) (gateway.ProfileRef, error) {
	g.received = append(g.received, d)
	return gateway.ProfileRef{ID: "17", Message: "Profile created successfully"}, nil
}

// useWorkspace points the commands at a temp dir and a recording gateway.
func useWorkspace(t *testing.T) (string, *recordingGateway) {
	t.Helper()
	dir := t.TempDir()
	gw := &recordingGateway{}
	workspace = dir
	prev := openSession
	openSession = func(dir string, opts ...bootstrap.Option) (*bootstrap.Session, error) {
		opts = append(opts, bootstrap.WithGateway(gw), bootstrap.WithoutLogFile())
		return bootstrap.Open(dir, opts...)
	}
	t.Cleanup(func() {
		workspace = ""
		openSession = prev
	})
	return dir, gw
}

func seedName(t *testing.T, name string) {
	t.Helper()
	session, err := openWorkspace()
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()
	if err := session.Engine.UpdateBasicInfo(profile.BasicInfoPatch{FullName: &name}); err != nil {
		t.Fatalf("seed name: %v", err)
	}
}

func newCommand(flags ...string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	for _, flag := range flags {
		cmd.Flags().Bool(flag, true, "")
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func TestStatusJSON(t *testing.T) {
	useWorkspace(t)
	seedName(t, "Grace Hopper")

	cmd, out := newCommand("json")
	if err := runStatus(cmd, nil); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	var summary statusSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("status output is not JSON: %v\n%s", err, out.String())
	}
	if summary.FullName != "Grace Hopper" {
		t.Fatalf("expected name in summary, got %q", summary.FullName)
	}
	if summary.ProfileComplete {
		t.Fatalf("empty sections must not count as complete")
	}
	if len(summary.Sections) != len(profile.Sections) {
		t.Fatalf("expected %d sections, got %d", len(profile.Sections), len(summary.Sections))
	}
	if !summary.Sections[0].Complete || summary.Sections[0].Section != profile.SectionBasicInfo {
		t.Fatalf("basic info should be complete: %+v", summary.Sections[0])
	}
}

func TestStatusText(t *testing.T) {
	useWorkspace(t)
	cmd, out := newCommand()
	cmd.Flags().Bool("json", false, "")
	if err := runStatus(cmd, nil); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(out.String(), "(no name yet)") {
		t.Fatalf("unexpected status output:\n%s", out.String())
	}
}

func TestSubmitSendsDraftAndClearsIt(t *testing.T) {
	_, gw := useWorkspace(t)
	seedName(t, "Grace Hopper")

	cmd, out := newCommand()
	if err := runSubmit(cmd, nil); err != nil {
		t.Fatalf("runSubmit failed: %v", err)
	}
	if len(gw.received) != 1 || gw.received[0].BasicInfo.FullName != "Grace Hopper" {
		t.Fatalf("gateway did not receive the draft: %+v", gw.received)
	}
	if !strings.Contains(out.String(), "id 17") {
		t.Fatalf("expected profile id in output, got %q", out.String())
	}

	statusCmd, statusOut := newCommand("json")
	if err := runStatus(statusCmd, nil); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	var summary statusSummary
	if err := json.Unmarshal(statusOut.Bytes(), &summary); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if summary.FullName != "" {
		t.Fatalf("draft should be cleared after submit, got %q", summary.FullName)
	}
}

func TestSubmitWithoutNameFails(t *testing.T) {
	_, gw := useWorkspace(t)
	cmd, _ := newCommand()
	err := runSubmit(cmd, nil)
	if err == nil || err.Error() != wizard.MissingNameMessage {
		t.Fatalf("expected missing name error, got %v", err)
	}
	if len(gw.received) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	useWorkspace(t)
	seedName(t, "Grace Hopper")

	cmd, _ := newCommand()
	cmd.Flags().Bool("yes", false, "")
	if err := runReset(cmd, nil); err == nil {
		t.Fatalf("reset without --yes must fail")
	}

	cmd, out := newCommand("yes")
	if err := runReset(cmd, nil); err != nil {
		t.Fatalf("runReset failed: %v", err)
	}
	if !strings.Contains(out.String(), "Draft cleared") {
		t.Fatalf("unexpected output %q", out.String())
	}
	session, err := openWorkspace()
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer session.Close()
	if session.Engine.Draft().BasicInfo.FullName != "" {
		t.Fatalf("draft should be empty after reset")
	}
}

func TestConfigSetAPIURL(t *testing.T) {
	dir, _ := useWorkspace(t)
	cmd, out := newCommand()
	if err := configSetAPIURLCmd.RunE(cmd, []string{"https://profiles.example.com/api/"}); err != nil {
		t.Fatalf("set-api-url failed: %v", err)
	}
	if !strings.Contains(out.String(), "https://profiles.example.com/api") {
		t.Fatalf("unexpected output %q", out.String())
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.Project.Gateway.BaseURL != "https://profiles.example.com/api" {
		t.Fatalf("base url not persisted, got %q", cfg.Project.Gateway.BaseURL)
	}

	if err := configSetAPIURLCmd.RunE(cmd, []string{"ftp://nope"}); err == nil {
		t.Fatalf("expected invalid url to be rejected")
	}
}
