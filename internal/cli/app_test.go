// pattern: Functional Core
package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestAppPrintHelpShowsCommandsAndGroups(t *testing.T) {
	app := NewApp("1.0.0")
	app.AddCommand(&Command{Name: "install", Summary: "Install tooling"})
	app.AddGroup("worktree", "Manage worktree environments")

	buf := &bytes.Buffer{}
	app.PrintHelp(buf)

	output := buf.String()
	if !strings.Contains(output, "install") {
		t.Errorf("help missing install command:\n%s", output)
	}
	if !strings.Contains(output, "worktree") {
		t.Errorf("help missing worktree group:\n%s", output)
	}
}

func TestAppExecuteNoArgsPrintsHelp(t *testing.T) {
	app := NewApp("1.0.0")
	buf := &bytes.Buffer{}
	app.stderr = buf

	if code := app.Execute(nil); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if buf.Len() == 0 {
		t.Error("no help printed")
	}
}

func TestAppExecuteDispatchesUngroupedCommand(t *testing.T) {
	app := NewApp("1.0.0")
	var got []string
	app.AddCommand(&Command{
		Name: "ports",
		Run: func(args []string) error {
			got = args
			return nil
		},
	})

	if code := app.Execute([]string{"ports", "feature-x"}); code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if len(got) != 1 || got[0] != "feature-x" {
		t.Errorf("args = %v", got)
	}
}

func TestAppExecuteDispatchesGroupCommand(t *testing.T) {
	app := NewApp("1.0.0")
	called := false
	group := app.AddGroup("worktree", "Manage worktree environments")
	group.AddCommand(&Command{
		Name: "create",
		Run: func(args []string) error {
			called = true
			return nil
		},
	})

	if code := app.Execute([]string{"worktree", "create", "feature-x"}); code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if !called {
		t.Error("group command not dispatched")
	}
}

func TestAppExecuteCommandErrorReturnsNonZero(t *testing.T) {
	app := NewApp("1.0.0")
	buf := &bytes.Buffer{}
	app.stderr = buf
	app.AddCommand(&Command{
		Name: "merge",
		Run: func(args []string) error {
			return errTest
		},
	})

	if code := app.Execute([]string{"merge"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("stderr = %q", buf.String())
	}
}

func TestAppExecuteUnknownCommand(t *testing.T) {
	app := NewApp("1.0.0")
	buf := &bytes.Buffer{}
	app.stderr = buf

	if code := app.Execute([]string{"frobnicate"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestAppExecuteHelpFlagShowsUsage(t *testing.T) {
	app := NewApp("1.0.0")
	buf := &bytes.Buffer{}
	app.stderr = buf
	app.AddCommand(&Command{
		Name:  "install",
		Usage: "Usage: wtforge install",
		Run: func(args []string) error {
			t.Error("Run invoked for --help")
			return nil
		},
	})

	if code := app.Execute([]string{"install", "--help"}); code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(buf.String(), "Usage: wtforge install") {
		t.Errorf("stderr = %q", buf.String())
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }
