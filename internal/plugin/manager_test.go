package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writePlugin creates dir/name/plugin.json for m.
func writePlugin(t *testing.T, dir, name string, m Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, ManifestName), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writePlugin(t, tmpDir, "test-plugin", Manifest{
		Name:        "test-plugin",
		Version:     "1.0.0",
		Description: "A test plugin",
		Executable:  "run.sh",
		States:      []string{"heart", "fireworks"},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "test-plugin" {
		t.Errorf("expected plugin name 'test-plugin', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", plugin.Manifest.Version)
	}
	if len(plugin.Manifest.States) != 2 {
		t.Errorf("expected 2 states, got %d", len(plugin.Manifest.States))
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "run.sh") {
		t.Errorf("executable = %q", plugin.Executable)
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tmpDir := t.TempDir()

	writePlugin(t, tmpDir, "good", Manifest{Name: "good", Executable: "good"})
	writePlugin(t, tmpDir, "no-exec", Manifest{Name: "no-exec"})
	writePlugin(t, tmpDir, "no-name", Manifest{Executable: "x"})

	bad := filepath.Join(tmpDir, "bad-json")
	os.MkdirAll(bad, 0755)
	os.WriteFile(filepath.Join(bad, ManifestName), []byte("not valid json"), 0644)

	os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "stray-file"), []byte("x"), 0644)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Fatalf("expected only the good plugin, got %d", len(plugins))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, "my-plugin", Manifest{Name: "my-plugin", Version: "2.0.0", Executable: "bin"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugin, err := manager.Get("my-plugin")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", plugin.Manifest.Version)
	}

	if _, err := manager.Get("nonexistent-plugin"); err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_Match(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, "all", Manifest{Name: "all", Executable: "x"})
	writePlugin(t, tmpDir, "hearts", Manifest{Name: "hearts", Executable: "x", States: []string{"heart"}})
	writePlugin(t, tmpDir, "manual", Manifest{Name: "manual", Executable: "x", Triggers: []string{"manual"}})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		to, trigger string
		want        []string
	}{
		{"heart", "gesture", []string{"all", "hearts"}},
		{"heart", "manual", []string{"all", "hearts", "manual"}},
		{"digit1", "gesture", []string{"all"}},
		{"sphere", "manual", []string{"all", "manual"}},
	}
	for _, tt := range tests {
		got := manager.Match(tt.to, tt.trigger)
		if len(got) != len(tt.want) {
			t.Errorf("Match(%s, %s) = %d plugins, want %v", tt.to, tt.trigger, len(got), tt.want)
			continue
		}
		for i, p := range got {
			if p.Manifest.Name != tt.want[i] {
				t.Errorf("Match(%s, %s)[%d] = %s, want %s", tt.to, tt.trigger, i, p.Manifest.Name, tt.want[i])
			}
		}
	}
}

func TestManager_PluginDir(t *testing.T) {
	pluginDir := "/path/to/plugins"
	manager := NewManager(pluginDir)

	if manager.PluginDir() != pluginDir {
		t.Errorf("expected plugin dir %q, got %q", pluginDir, manager.PluginDir())
	}
}
