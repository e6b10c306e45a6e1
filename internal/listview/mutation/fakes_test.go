package mutation

import (
	"context"
	"strings"

	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

type fakeRemote struct {
	createCalls int
	updateCalls int
	deleteCalls int

	createErr error
	updateErr error
	deleteErr error

	// during runs inside each call so tests can observe the pending store.
	during func()

	nextID string

	// updateFn replaces the default update response when set.
	updateFn func(id string, patch Patch) (record.Document, error)
}

func (f *fakeRemote) Create(_ context.Context, payload record.Document) (record.Document, error) {
	f.createCalls++
	if f.during != nil {
		f.during()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := payload.WithID(f.nextID)
	created["created_by"] = "server"
	return created, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, patch Patch) (record.Document, error) {
	f.updateCalls++
	if f.during != nil {
		f.during()
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateFn != nil {
		return f.updateFn(id, patch)
	}
	updated := record.Document{"id": id, "updated_by": "server"}.Merge(patch)
	return updated, nil
}

func (f *fakeRemote) Delete(_ context.Context, _ string) error {
	f.deleteCalls++
	if f.during != nil {
		f.during()
	}
	return f.deleteErr
}

var requireName = ValidatorFunc[record.Document](func(d record.Document) error {
	if strings.TrimSpace(d.String("name")) == "" {
		return apperrors.Validation("name", "name is required")
	}
	return nil
})
