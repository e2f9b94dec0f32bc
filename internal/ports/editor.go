package ports

import "os/exec"

// PageViewer shows a page file in an external application
type PageViewer interface {
	OpenFile(path string) error
}

// EditorOpener opens page files for editing
type EditorOpener interface {
	OpenFile(path string) error
	// Command builds the editor process without starting it, so a
	// terminal UI can hand over the screen while it runs
	Command(path string) (*exec.Cmd, error)
}
