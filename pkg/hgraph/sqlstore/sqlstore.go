// Package sqlstore is a durable backing for a hgraph.Store: the ambient
// storage concern of SPEC_FULL.md §1 and §6, the way the teacher's
// pkg/korel/store/sqlite backs korel.Options.Store while the ranking/
// ingest core stays storage-agnostic. It persists a whole fact-store
// snapshot — not a live incremental backing for the in-memory arena —
// so the demo command can save a run's accumulated facts and resume
// against them later.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cognicore/forwardchain/pkg/hgraph"
)

// DB is a SQLite-backed atom store.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path, enabling
// WAL mode the way the teacher's store/sqlite.OpenSQLite does.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error { return d.db.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS atoms (
	seq INTEGER PRIMARY KEY,
	handle TEXT UNIQUE NOT NULL,
	type INTEGER NOT NULL,
	name TEXT NOT NULL,
	is_link INTEGER NOT NULL,
	outgoing TEXT NOT NULL,
	tv_mean REAL NOT NULL,
	tv_count REAL NOT NULL,
	tv_confidence REAL NOT NULL,
	av_sti REAL NOT NULL,
	av_lti REAL NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save replaces the database's contents with a snapshot of every atom
// local to store (hgraph.Store.LocalHandles — parent-store atoms, if
// any, are not persisted; a saved store is assumed to be a root store).
// Atoms are written in arena order, so Load can rebuild outgoing
// references by replaying rows in the same order: a link's outgoing set
// only ever references an atom allocated earlier in the same store.
func (d *DB) Save(ctx context.Context, store *hgraph.Store) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM atoms`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO atoms (seq, handle, type, name, is_link, outgoing, tv_mean, tv_count, tv_confidence, av_sti, av_lti)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, h := range store.LocalHandles() {
		a := store.Get(h)
		if a == nil {
			continue
		}
		isLink := 0
		if a.IsLink() {
			isLink = 1
		}
		if _, err := stmt.ExecContext(ctx, seq, h.String(), int(a.Type), a.Name, isLink, encodeOutgoing(a.Outgoing),
			a.TV.Mean, a.TV.Count, a.TV.Confidence, a.AV.STI, a.AV.LTI); err != nil {
			return fmt.Errorf("sqlstore: saving atom %s: %w", h, err)
		}
	}
	return tx.Commit()
}

// Load rebuilds a fresh root hgraph.Store from the database's atoms,
// assigning each a new Handle (Handles are arena-local identities, not
// portable across Store instances — spec.md §9 Design Notes, "Atom
// handles") and translating every outgoing reference accordingly.
func (d *DB) Load(ctx context.Context) (*hgraph.Store, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT handle, type, name, is_link, outgoing, tv_mean, tv_count, tv_confidence, av_sti, av_lti
FROM atoms ORDER BY seq
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	store := hgraph.NewStore()
	translate := make(map[string]hgraph.Handle)

	for rows.Next() {
		var (
			savedHandle, name, outgoingRaw string
			typ, isLink                    int
			tv                             hgraph.TruthValue
			av                             hgraph.AttentionValue
		)
		if err := rows.Scan(&savedHandle, &typ, &name, &isLink, &outgoingRaw,
			&tv.Mean, &tv.Count, &tv.Confidence, &av.STI, &av.LTI); err != nil {
			return nil, err
		}

		var outgoing []hgraph.Handle
		if isLink == 1 {
			outgoing, err = decodeOutgoing(outgoingRaw, translate)
			if err != nil {
				return nil, fmt.Errorf("sqlstore: loading atom %s: %w", savedHandle, err)
			}
		}
		h := store.Add(&hgraph.Atom{Type: hgraph.Type(typ), Name: name, Outgoing: outgoing, TV: tv, AV: av})
		translate[savedHandle] = h
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store, nil
}

func encodeOutgoing(outgoing []hgraph.Handle) string {
	parts := make([]string, len(outgoing))
	for i, h := range outgoing {
		parts[i] = h.String()
	}
	return strings.Join(parts, ",")
}

func decodeOutgoing(raw string, translate map[string]hgraph.Handle) ([]hgraph.Handle, error) {
	if raw == "" {
		return []hgraph.Handle{}, nil
	}
	parts := strings.Split(raw, ",")
	outgoing := make([]hgraph.Handle, len(parts))
	for i, p := range parts {
		h, ok := translate[p]
		if !ok {
			return nil, fmt.Errorf("reference to undefined handle %s", p)
		}
		outgoing[i] = h
	}
	return outgoing, nil
}
