package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/roach88/clientsync/internal/ir"
)

// Queue is one device's view of the outgoing command queue and the log of
// commands it applied.
type Queue struct {
	db       *sql.DB
	clientID string
}

// Queue returns the queues of device clientID.
func (s *Store) Queue(clientID string) *Queue {
	return &Queue{db: s.db, clientID: clientID}
}

// EnqueueOutgoing queues cmd for every peer. Queueing a command that is
// already pending is a no-op; it keeps its original position.
func (q *Queue) EnqueueOutgoing(ctx context.Context, cmd ir.Command) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO outgoing_commands (client_id, command)
		VALUES (?, ?)
		ON CONFLICT(client_id, command) DO NOTHING
	`, q.clientID, cmd.String())
	return errors.Wrapf(err, "enqueue %s", cmd)
}

// OutgoingCommands returns the pending commands in the order they were
// queued.
func (q *Queue) OutgoingCommands(ctx context.Context) ([]ir.Command, error) {
	return q.commands(ctx, `
		SELECT command FROM outgoing_commands
		WHERE client_id = ?
		ORDER BY seq ASC
	`)
}

// AckOutgoing removes cmds from the queue once they reached the server.
func (q *Queue) AckOutgoing(ctx context.Context, cmds []ir.Command) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin ack")
	}
	defer tx.Rollback()

	for _, cmd := range cmds {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM outgoing_commands WHERE client_id = ? AND command = ?
		`, q.clientID, cmd.String()); err != nil {
			return errors.Wrapf(err, "ack %s", cmd)
		}
	}
	return errors.Wrap(tx.Commit(), "commit ack")
}

// RecordApplied appends cmd to the applied log.
func (q *Queue) RecordApplied(ctx context.Context, cmd ir.Command) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO applied_commands (client_id, command) VALUES (?, ?)
	`, q.clientID, cmd.String())
	return errors.Wrapf(err, "record applied %s", cmd)
}

// AppliedCommands returns the applied log, oldest first.
func (q *Queue) AppliedCommands(ctx context.Context) ([]ir.Command, error) {
	return q.commands(ctx, `
		SELECT command FROM applied_commands
		WHERE client_id = ?
		ORDER BY seq ASC
	`)
}

func (q *Queue) commands(ctx context.Context, query string) ([]ir.Command, error) {
	rows, err := q.db.QueryContext(ctx, query, q.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "query commands")
	}
	defer rows.Close()

	var out []ir.Command
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan command")
		}
		cmd, err := ir.ParseCommand(name)
		if err != nil {
			return nil, errors.Wrap(err, "stored command")
		}
		out = append(out, cmd)
	}
	return out, errors.Wrap(rows.Err(), "query commands")
}
