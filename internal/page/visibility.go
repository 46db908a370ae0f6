package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/v0xg/pagecapture/internal/wait"
)

// Visibility blocks until every field marked Visible is displayed.
type Visibility struct {
	wait wait.Wait
}

func NewVisibility(w wait.Wait) *Visibility {
	return &Visibility{wait: w}
}

// WaitFor polls the visible fields as a conjunction. Fields not marked
// Visible are ignored; with none marked it returns immediately. A lookup
// error counts as not visible yet and is reported if the wait times out.
func (v *Visibility) WaitFor(ctx context.Context, fields []Field) error {
	required := (&Fields{list: fields}).VisibilityRequirements()
	if len(required) == 0 {
		return nil
	}

	names := make([]string, len(required))
	for i, f := range required {
		names[i] = f.Name
	}

	return v.wait.Until(ctx, "visibility of "+strings.Join(names, ", "), func() (bool, error) {
		for _, f := range required {
			ok, err := f.Handle.displayed()
			if err != nil {
				return false, fmt.Errorf("%s: %w", f.Name, err)
			}
			if !ok {
				return false, fmt.Errorf("%s (%s) is not displayed", f.Name, f.Handle.Locator())
			}
		}
		return true, nil
	})
}
