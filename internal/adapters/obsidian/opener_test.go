package obsidian

import (
	"os/exec"
	"testing"
)

func TestNewOpener_VaultName(t *testing.T) {
	tests := []struct {
		name          string
		wikiPath      string
		vaultName     string
		wantVaultName string
	}{
		{
			name:          "derived from directory",
			wikiPath:      "/home/test/wiki",
			wantVaultName: "wiki",
		},
		{
			name:          "directory with spaces",
			wikiPath:      "/home/test/Travel Notes",
			wantVaultName: "Travel Notes",
		},
		{
			name:          "explicit name",
			wikiPath:      "/home/test/wiki",
			vaultName:     "Atlas",
			wantVaultName: "Atlas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := NewOpener(tt.wikiPath, tt.vaultName)
			if opener.vaultName != tt.wantVaultName {
				t.Errorf("vaultName = %q, want %q", opener.vaultName, tt.wantVaultName)
			}
		})
	}
}

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name     string
		wikiPath string
		filePath string
		wantURI  string
		wantErr  bool
	}{
		{
			name:     "page at the root",
			wikiPath: "/home/test/wiki",
			filePath: "/home/test/wiki/Paris.md",
			wantURI:  "obsidian://open?vault=wiki&file=Paris.md",
		},
		{
			name:     "namespaced page",
			wikiPath: "/home/test/wiki",
			filePath: "/home/test/wiki/Category/Capital city.md",
			wantURI:  "obsidian://open?vault=wiki&file=Category%2FCapital%20city.md",
		},
		{
			name:     "vault name with spaces",
			wikiPath: "/home/test/Travel Notes",
			filePath: "/home/test/Travel Notes/Lyon.md",
			wantURI:  "obsidian://open?vault=Travel%20Notes&file=Lyon.md",
		},
		{
			name:     "page outside the wiki",
			wikiPath: "/home/test/wiki",
			filePath: "/home/test/other/Paris.md",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotURI, err := NewOpener(tt.wikiPath, "").BuildURI(tt.filePath)

			if (err != nil) != tt.wantErr {
				t.Errorf("BuildURI() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotURI != tt.wantURI {
				t.Errorf("BuildURI() = %q, want %q", gotURI, tt.wantURI)
			}
		})
	}
}

func TestOpenFile_LaunchesURI(t *testing.T) {
	opener := NewOpener("/home/test/wiki", "")
	var ran *exec.Cmd
	opener.run = func(cmd *exec.Cmd) error {
		ran = cmd
		return nil
	}

	if err := opener.OpenFile("/home/test/wiki/Paris.md"); err != nil {
		t.Skipf("no launcher on this platform: %v", err)
	}
	if ran == nil {
		t.Fatal("expected a launcher command")
	}
	if got := ran.Args[len(ran.Args)-1]; got != "obsidian://open?vault=wiki&file=Paris.md" {
		t.Errorf("launched %q", got)
	}
}

func TestLauncher_UnsupportedOS(t *testing.T) {
	if _, err := launcher("plan9", "obsidian://open"); err == nil {
		t.Error("expected an error for an unsupported OS")
	}
}
