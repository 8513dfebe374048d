package postgres

import (
	"database/sql"
	"encoding/json"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// marshalMetadata renders a metadata map as JSONB, with NULL for empty maps.
func marshalMetadata(m types.Metadata) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode metadata").
			Mark(ierr.ErrDatabase)
	}
	return b, nil
}

func unmarshalMetadata(raw []byte) (types.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m types.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode metadata").
			Mark(ierr.ErrDatabase)
	}
	return m, nil
}

// errNoRows aliases sql.ErrNoRows for updates that matched nothing.
var errNoRows = sql.ErrNoRows

// notFound converts sql.ErrNoRows into a marked not-found error; anything
// else becomes a database error.
func notFound(err error, entity, id string) error {
	if ierr.Is(err, sql.ErrNoRows) {
		return ierr.NewErrorf("%s not found", entity).
			WithHintf("%s with identifier %s was not found", entity, id).
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return dbErr(err, "Failed to query "+entity)
}

func dbErr(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}
