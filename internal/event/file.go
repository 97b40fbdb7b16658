package event

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/roadwatch/roadwatch-web/internal/models"
)

const TypeSeparator = "_"

// FilePublisher journals events to a local folder, one file per event
// identity. Useful for local debugging of the push stream.
type FilePublisher[T Identifiable] struct {
	Dir string
}

func (mp *FilePublisher[T]) Publish(_ context.Context, event T) error {
	err := os.MkdirAll(mp.Dir, 0750)
	if err != nil && !os.IsExist(err) {
		return err
	}

	filename := filepath.Join(mp.Dir, event.Identifier()+TypeSeparator+event.Type())
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	// write event to file.
	encoder := json.NewEncoder(f)
	err = encoder.Encode(event)
	if err != nil {
		return err
	}

	return nil
}

func (mp *FilePublisher[T]) Close() error {
	return nil
}

func (mp *FilePublisher[T]) Health(_ context.Context) (rsp models.ServiceHealthResp) {
	rsp.Service = "File Event Journal"
	rsp.Status = models.STATUS_UP
	rsp.HealthIssue = models.HEALTH_ISSUE_NONE
	if _, err := os.Stat(mp.Dir); err != nil && !os.IsNotExist(err) {
		return rsp.BuildErrorResponse(err)
	}
	return rsp
}
