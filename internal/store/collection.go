package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/roach88/clientsync/internal/collection"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type collectionRow struct {
	lastModified collection.ServerTimestamp
	keyID        string
}

// ensureCollection returns the collection's cursor and key, creating the
// collection with a fresh key on first use.
func ensureCollection(ctx context.Context, q queryer, name string) (collectionRow, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO collections (name, last_modified, key_id)
		VALUES (?, 0, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, uuid.NewString())
	if err != nil {
		return collectionRow{}, errors.Wrapf(err, "create collection %s", name)
	}

	var row collectionRow
	err = q.QueryRowContext(ctx, `
		SELECT last_modified, key_id FROM collections WHERE name = ?
	`, name).Scan(&row.lastModified, &row.keyID)
	if err != nil {
		return collectionRow{}, errors.Wrapf(err, "read collection %s", name)
	}
	return row, nil
}

// KeyForCollection implements collection.CollectionKeys.
func (s *Store) KeyForCollection(name string) (collection.KeyBundle, error) {
	row, err := ensureCollection(context.Background(), s.db, name)
	if err != nil {
		return collection.KeyBundle{}, err
	}
	return collection.KeyBundle{ID: row.keyID}, nil
}

// GlobalState returns the server limits, every collection cursor and the
// store itself as key source.
func (s *Store) GlobalState(ctx context.Context) (*collection.GlobalState, error) {
	config, err := s.ServerConfig(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, last_modified FROM collections ORDER BY name ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "read collections")
	}
	defer rows.Close()

	cursors := make(map[string]collection.ServerTimestamp)
	for rows.Next() {
		var name string
		var ts collection.ServerTimestamp
		if err := rows.Scan(&name, &ts); err != nil {
			return nil, errors.Wrap(err, "scan collection")
		}
		cursors[name] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read collections")
	}

	return &collection.GlobalState{Config: config, Collections: cursors, Keys: s}, nil
}

// Fetch implements collection.Client.
//
// Records come back ordered by id. A full request returns the whole
// collection; otherwise only records written after state.LastModified.
func (s *Store) Fetch(ctx context.Context, state *collection.CollState, req collection.Request) (*collection.IncomingChangeset, error) {
	coll, err := ensureCollection(ctx, s.db, req.Collection)
	if err != nil {
		return nil, err
	}
	if state.Key.ID != coll.keyID {
		return nil, errors.Wrapf(collection.ErrKeyMismatch, "fetch %s", req.Collection)
	}

	since := state.LastModified
	if req.IsFull {
		since = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM records
		WHERE collection = ? AND modified > ?
		ORDER BY id ASC COLLATE BINARY
	`, req.Collection, since)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", req.Collection)
	}
	defer rows.Close()

	inbound := &collection.IncomingChangeset{Collection: req.Collection, Timestamp: coll.lastModified}
	for rows.Next() {
		var p collection.Payload
		var data string
		if err := rows.Scan(&p.ID, &data); err != nil {
			return nil, errors.Wrapf(err, "scan %s record", req.Collection)
		}
		p.Data = json.RawMessage(data)
		inbound.Changes = append(inbound.Changes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "fetch %s", req.Collection)
	}
	return inbound, nil
}

// Upload implements collection.Client.
//
// The whole batch is rejected with ErrPreconditionFailed if the collection
// was written after state.LastModified. Records larger than the stored
// record limit, or that are not valid JSON, fail individually. With atomic
// set, any failure rejects the whole batch. Accepted records share one new
// timestamp, the old cursor plus one.
func (s *Store) Upload(ctx context.Context, state *collection.CollState, changes *collection.OutgoingChangeset, atomic bool) (collection.UploadInfo, error) {
	config, err := s.ServerConfig(ctx)
	if err != nil {
		return collection.UploadInfo{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return collection.UploadInfo{}, errors.Wrap(err, "begin upload")
	}
	defer tx.Rollback()

	coll, err := ensureCollection(ctx, tx, changes.Collection)
	if err != nil {
		return collection.UploadInfo{}, err
	}
	if state.Key.ID != coll.keyID {
		return collection.UploadInfo{}, errors.Wrapf(collection.ErrKeyMismatch, "upload %s", changes.Collection)
	}
	if coll.lastModified > state.LastModified {
		return collection.UploadInfo{}, errors.Wrapf(collection.ErrPreconditionFailed,
			"upload %s: server at %d, read at %d", changes.Collection, coll.lastModified, state.LastModified)
	}

	var info collection.UploadInfo
	var accepted []collection.Payload
	for _, p := range changes.Changes {
		if !json.Valid(p.Data) || (config.MaxRecordPayloadBytes > 0 && len(p.Data) > config.MaxRecordPayloadBytes) {
			info.FailedIDs = append(info.FailedIDs, p.ID)
			continue
		}
		accepted = append(accepted, p)
		info.SuccessfulIDs = append(info.SuccessfulIDs, p.ID)
	}

	if atomic && len(info.FailedIDs) > 0 {
		return collection.UploadInfo{FailedIDs: changes.IDs(), Modified: coll.lastModified}, nil
	}
	if len(accepted) == 0 {
		info.Modified = coll.lastModified
		return info, nil
	}

	ts := coll.lastModified + 1
	for _, p := range accepted {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (collection, id, payload, modified)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				payload = excluded.payload,
				modified = excluded.modified
		`, changes.Collection, p.ID, string(p.Data), ts)
		if err != nil {
			return collection.UploadInfo{}, errors.Wrapf(err, "write record %s", p.ID)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE collections SET last_modified = ? WHERE name = ?
	`, ts, changes.Collection); err != nil {
		return collection.UploadInfo{}, errors.Wrap(err, "advance cursor")
	}

	if err := tx.Commit(); err != nil {
		return collection.UploadInfo{}, errors.Wrap(err, "commit upload")
	}

	info.Modified = ts
	return info, nil
}

// Records returns every record of a collection ordered by id.
func (s *Store) Records(ctx context.Context, name string) ([]collection.Payload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM records
		WHERE collection = ?
		ORDER BY id ASC COLLATE BINARY
	`, name)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", name)
	}
	defer rows.Close()

	var out []collection.Payload
	for rows.Next() {
		var p collection.Payload
		var data string
		if err := rows.Scan(&p.ID, &data); err != nil {
			return nil, errors.Wrapf(err, "scan %s record", name)
		}
		p.Data = json.RawMessage(data)
		out = append(out, p)
	}
	return out, errors.Wrapf(rows.Err(), "list %s", name)
}
