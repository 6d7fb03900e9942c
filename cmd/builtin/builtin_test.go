package builtin

import (
	"strings"
	"testing"
	"time"

	"github.com/nexelgames/assets"
	"github.com/nexelgames/assets/cmd"
	"github.com/nexelgames/assets/vfs"
)

func newConsoleFixture(t *testing.T) *cmd.Manager {
	t.Helper()

	fs := vfs.NewMemoryFS()
	modTime := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	fs.WriteFileWithTime("/textures/rock.png", []byte("pixels"), modTime)
	fs.WriteFileWithTime("/levels/cave.scene", []byte(`{"references": []}`), modTime)

	project, err := assets.NewProject(fs)
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if err := project.Initialize(t.Context()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		project.Shutdown(t.Context())
	})

	if _, err := project.Scan(t.Context(), nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	manager := cmd.NewManager(project)
	if err := RegisterAll(manager); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	return manager
}

func TestLsCommand(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	code, err := manager.Execute(t.Context(), &out, "ls", "/textures")
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "/textures/rock.png") {
		t.Errorf("missing listing entry, got %q", out.String())
	}
	if strings.Contains(out.String(), "cave.scene") {
		t.Error("listing leaked entries outside the prefix")
	}
}

func TestLsCommand_LongFormat(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	if _, err := manager.Execute(t.Context(), &out, "ls", "-l", "/textures"); err != nil {
		t.Fatalf("ls -l failed: %v", err)
	}
	if !strings.Contains(out.String(), "texture") {
		t.Errorf("long format missing type column, got %q", out.String())
	}
}

func TestDepsCommand(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	code, err := manager.Execute(t.Context(), &out, "deps", "/levels/cave.scene")
	if err != nil {
		t.Fatalf("deps failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code %d", code)
	}

	if _, err := manager.Execute(t.Context(), &out, "deps", "/missing.scene"); err == nil {
		t.Error("deps on unknown asset succeeded")
	}
	if _, err := manager.Execute(t.Context(), &out, "deps"); err == nil {
		t.Error("deps without argument succeeded")
	}
}

func TestSearchCommand(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	if _, err := manager.Execute(t.Context(), &out, "search", "rock"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out.String(), "/textures/rock.png") {
		t.Errorf("search output missing match, got %q", out.String())
	}
}

func TestStatsCommand(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	if _, err := manager.Execute(t.Context(), &out, "stats"); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out.String(), "assets:  2") {
		t.Errorf("unexpected stats output %q", out.String())
	}
}

func TestManager_UnknownCommand(t *testing.T) {
	manager := newConsoleFixture(t)

	var out strings.Builder
	if _, err := manager.Execute(t.Context(), &out, "bogus"); err == nil {
		t.Error("unknown command succeeded")
	}
}
