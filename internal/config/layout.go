package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/serena/internal/common"
)

// Directory names under an archive root.
const (
	EmlDir          = "emls"
	TextMessageDir  = "textmessage"
	MessagingAppDir = "messagingapp"
	StagingDir      = "text"
	A2PTextDir      = "A2P-classified-text"
	A2PHTMLDir      = "A2P-classified-html"
	A2PJSONDir      = "A2P-classified-json"
)

// Layout resolves every directory the pipeline reads or writes for one
// archive root.
type Layout struct {
	Root         string
	Emls         string
	TextMessage  string
	MessagingApp string
	Text         string
	A2PText      string
	A2PHTML      string
	A2PJSON      string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	root = ExpandPath(root)
	return Layout{
		Root:         root,
		Emls:         filepath.Join(root, EmlDir),
		TextMessage:  filepath.Join(root, TextMessageDir),
		MessagingApp: filepath.Join(root, MessagingAppDir),
		Text:         filepath.Join(root, StagingDir),
		A2PText:      filepath.Join(root, A2PTextDir),
		A2PHTML:      filepath.Join(root, A2PHTMLDir),
		A2PJSON:      filepath.Join(root, A2PJSONDir),
	}
}

// Validate checks that the root exists and is a directory.
func (l Layout) Validate() error {
	info, err := os.Stat(l.Root)
	if err != nil {
		return fmt.Errorf("archive root %s: %w", l.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root %s: %w", l.Root, common.ErrNotDirectory)
	}
	return nil
}

// EnsureOutputs creates the staging and output directories.
func (l Layout) EnsureOutputs() error {
	for _, dir := range []string{l.Text, l.A2PText, l.A2PHTML, l.A2PJSON} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrOutputNotReady, dir, err)
		}
	}
	return nil
}
