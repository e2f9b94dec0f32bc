package views

import (
	"go.uber.org/zap"

	"semcache/internal/application/commands"
	"semcache/internal/application/querycache"
	"semcache/internal/ports"
)

// Services are the collaborators the views run commands against
type Services struct {
	Cache  *querycache.Cache
	Data   ports.DataStore
	Index  ports.PageIndex
	Logger *zap.Logger
}

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching
type SwitchToQueryMsg struct{}

type SwitchToResultsMsg struct{}

type SwitchToHelpMsg struct{}

// RunQueryMsg asks the results view to run a request
type RunQueryMsg struct {
	Request commands.QueryRequest
}

// OpenEditorMsg asks the app to open a page file in the editor
type OpenEditorMsg struct {
	Path string
}

// OpenViewerMsg asks the app to show a page file in the page viewer
type OpenViewerMsg struct {
	Path string
}
