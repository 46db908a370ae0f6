package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// FileTransport writes screenshots into a per-execution directory, one
// PNG plus a JSON sidecar per request.
type FileTransport struct {
	fs          afero.Fs
	dir         string
	executionID string
}

// NewFileTransport creates <root>/<execution id>/ on fs.
func NewFileTransport(fs afero.Fs, root string) (*FileTransport, error) {
	id := uuid.NewString()
	dir := filepath.Join(root, id)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating capture dir: %w", err)
	}
	return &FileTransport{fs: fs, dir: dir, executionID: id}, nil
}

// Dir returns the directory screenshots are written to.
func (t *FileTransport) Dir() string {
	return t.dir
}

// WriteExecution stores the execution description next to the screenshots.
func (t *FileTransport) WriteExecution(e Execution) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(t.fs, filepath.Join(t.dir, "execution.json"), data, 0o644)
}

func (t *FileTransport) Send(ctx context.Context, s Screenshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ExecutionID = t.executionID
	base := filepath.Join(t.dir, fmt.Sprintf("%04d-%s", s.Seq, s.Command.Action))

	if err := afero.WriteFile(t.fs, base+".png", s.PNG, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	// The image is already on disk; keep the sidecar small.
	s.ScreenshotBase64 = ""
	meta, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(t.fs, base+".json", meta, 0o644); err != nil {
		return fmt.Errorf("writing screenshot metadata: %w", err)
	}
	return nil
}
