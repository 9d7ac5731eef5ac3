// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/domain"
)

// DuckDBConnector implements Connector against an embedded DuckDB database.
// It is the production storage engine for the domain schema this service
// treats as an external collaborator: events, users, RSVPs/activity,
// and the follow graph.
type DuckDBConnector struct {
	db *sql.DB
}

// NewDuckDBConnector opens (creating if necessary) a DuckDB database at
// path and ensures the schema exists.
func NewDuckDBConnector(ctx context.Context, path string) (*DuckDBConnector, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "open duckdb", err)
	}
	c := &DuckDBConnector{db: db}
	if err := c.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *DuckDBConnector) Close() error {
	return c.db.Close()
}

func (c *DuckDBConnector) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id BIGINT PRIMARY KEY,
			title VARCHAR,
			description VARCHAR,
			category VARCHAR,
			tags VARCHAR, -- comma-joined
			location VARCHAR,
			start_time TIMESTAMP,
			end_time TIMESTAMP,
			max_attendees INTEGER,
			organizer_id VARCHAR,
			org_affiliation VARCHAR,
			archived BOOLEAN DEFAULT FALSE,
			archived_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR PRIMARY KEY,
			username VARCHAR,
			bio VARCHAR,
			location VARCHAR,
			interests VARCHAR, -- comma-joined
			kind VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			user_id VARCHAR,
			event_id BIGINT,
			kind VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS social_edges (
			follower VARCHAR,
			followee VARCHAR,
			created_at TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(apperrors.Internal, "create schema", err)
		}
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (c *DuckDBConnector) FutureEvents(ctx context.Context, now time.Time) ([]domain.Event, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT event_id, title, description, category, tags, location,
		       start_time, end_time, max_attendees, organizer_id,
		       org_affiliation, archived, archived_at
		FROM events
		WHERE archived = FALSE AND start_time > ?
		ORDER BY event_id`, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query future events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (c *DuckDBConnector) Event(ctx context.Context, eventID int64) (domain.Event, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT event_id, title, description, category, tags, location,
		       start_time, end_time, max_attendees, organizer_id,
		       org_affiliation, archived, archived_at
		FROM events WHERE event_id = ?`, eventID)
	e, err := scanEventRow(row)
	if err == sql.ErrNoRows {
		return domain.Event{}, apperrors.New(apperrors.NotFound, fmt.Sprintf("event %d not found", eventID))
	}
	if err != nil {
		return domain.Event{}, apperrors.Wrap(apperrors.Degraded, "query event", err)
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan event row", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "iterate event rows", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventRow(row rowScanner) (domain.Event, error) {
	var (
		e             domain.Event
		tags          string
		maxAttendees  sql.NullInt64
		orgAffiliation sql.NullString
		archivedAt    sql.NullTime
	)
	err := row.Scan(&e.EventID, &e.Title, &e.Description, &e.Category, &tags,
		&e.Location, &e.StartTime, &e.EndTime, &maxAttendees, &e.OrganizerID,
		&orgAffiliation, &e.Archived, &archivedAt)
	if err != nil {
		return domain.Event{}, err
	}
	e.Tags = splitCSV(tags)
	if maxAttendees.Valid {
		v := int(maxAttendees.Int64)
		e.MaxAttendees = &v
	}
	e.OrgAffiliation = orgAffiliation.String
	if archivedAt.Valid {
		t := archivedAt.Time
		e.ArchivedAt = &t
	}
	return e, nil
}

func (c *DuckDBConnector) ActiveUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT user_id, username, bio, location, interests, kind FROM users ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query users", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		var interests, kind string
		if err := rows.Scan(&u.UserID, &u.Username, &u.Bio, &u.Location, &interests, &kind); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan user row", err)
		}
		u.Interests = splitCSV(interests)
		u.Kind = domain.AccountKind(kind)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (c *DuckDBConnector) User(ctx context.Context, userID string) (domain.User, error) {
	row := c.db.QueryRowContext(ctx, `SELECT user_id, username, bio, location, interests, kind FROM users WHERE user_id = ?`, userID)
	var u domain.User
	var interests, kind string
	err := row.Scan(&u.UserID, &u.Username, &u.Bio, &u.Location, &interests, &kind)
	if err == sql.ErrNoRows {
		return domain.User{}, apperrors.New(apperrors.NotFound, fmt.Sprintf("user %q not found", userID))
	}
	if err != nil {
		return domain.User{}, apperrors.Wrap(apperrors.Degraded, "query user", err)
	}
	u.Interests = splitCSV(interests)
	u.Kind = domain.AccountKind(kind)
	return u, nil
}

func (c *DuckDBConnector) UserInteractions(ctx context.Context, userID string, since, now time.Time) ([]domain.Interaction, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT user_id, event_id, kind, created_at FROM interactions
		WHERE user_id = ? AND created_at BETWEEN ? AND ?
		ORDER BY created_at`, userID, since, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query interactions", err)
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var i domain.Interaction
		var kind string
		if err := rows.Scan(&i.UserID, &i.EventID, &kind, &i.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan interaction row", err)
		}
		i.Kind = domain.InteractionKind(kind)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (c *DuckDBConnector) Followees(ctx context.Context, userID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT followee FROM social_edges WHERE follower = ? ORDER BY followee`, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query followees", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var followee string
		if err := rows.Scan(&followee); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan followee row", err)
		}
		out = append(out, followee)
	}
	return out, rows.Err()
}

func (c *DuckDBConnector) CategoryDictionary(ctx context.Context) ([]string, error) {
	return c.distinctStrings(ctx, `SELECT DISTINCT category FROM events WHERE category != '' ORDER BY category`)
}

func (c *DuckDBConnector) TagDictionary(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT tags FROM events WHERE tags != ''`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query tags", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan tags row", err)
		}
		for _, t := range splitCSV(tags) {
			seen[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortedKeys(seen), nil
}

func (c *DuckDBConnector) distinctStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query distinct strings", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan distinct string row", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// FriendStatuses joins the viewer's followees against interactions for a
// single event, keeping only going/interested rows.
func (c *DuckDBConnector) FriendStatuses(ctx context.Context, viewerID string, eventID int64) ([]FriendStatus, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT i.user_id, i.kind
		FROM interactions i
		JOIN social_edges s ON s.followee = i.user_id
		WHERE s.follower = ? AND i.event_id = ? AND i.kind IN ('going', 'interested')`,
		viewerID, eventID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "query friend statuses", err)
	}
	defer rows.Close()

	var out []FriendStatus
	for rows.Next() {
		var userID, kind string
		if err := rows.Scan(&userID, &kind); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "scan friend status row", err)
		}
		out = append(out, FriendStatus{UserID: userID, Status: domain.InteractionKind(kind)})
	}
	return out, rows.Err()
}
