// Package obsidian opens wiki pages in Obsidian when the wiki directory
// is also an Obsidian vault.
package obsidian

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener implements ports.PageViewer through the obsidian:// URI scheme
type Opener struct {
	wikiPath  string
	vaultName string
	run       func(*exec.Cmd) error
}

// NewOpener creates an opener for the vault rooted at wikiPath. An empty
// vaultName uses the directory name.
func NewOpener(wikiPath, vaultName string) *Opener {
	if vaultName == "" {
		vaultName = filepath.Base(wikiPath)
	}
	return &Opener{
		wikiPath:  wikiPath,
		vaultName: vaultName,
		run:       (*exec.Cmd).Run,
	}
}

// OpenFile shows the page file in Obsidian
func (o *Opener) OpenFile(filePath string) error {
	uri, err := o.BuildURI(filePath)
	if err != nil {
		return err
	}
	cmd, err := launcher(runtime.GOOS, uri)
	if err != nil {
		return err
	}
	return o.run(cmd)
}

// BuildURI constructs the obsidian:// URI of a page file
func (o *Opener) BuildURI(filePath string) (string, error) {
	relPath, err := filepath.Rel(o.wikiPath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("page is outside the wiki: %s", filePath)
	}

	// Obsidian expects forward slashes in paths
	relPath = filepath.ToSlash(relPath)

	return fmt.Sprintf("obsidian://open?vault=%s&file=%s",
		escape(o.vaultName),
		escape(relPath),
	), nil
}

// escape percent-encodes s, spaces included
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func launcher(goos, uri string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", uri), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", uri), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", uri), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}
