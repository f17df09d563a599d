package podcasts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for unknown podcast and stream ids.
var ErrNotFound = errors.New("not found")

// Podcast is a subscribed feed.
type Podcast struct {
	ID            int64
	Title         string
	URL           string
	Description   string
	Image         string
	LastRefreshed time.Time

	// Streams is the number of stored streams.
	Streams int
}

// Stream is one episode of a podcast.
type Stream struct {
	ID          int64
	Podcast     int64
	URL         string
	Title       string
	Length      int64
	MIME        string
	Published   time.Time
	Description string
	Duration    time.Duration
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

const podcastColumns = `p.id, p.title, p.url, p.description, p.image, p.last_refreshed, count(s.id)`

const podcastsFrom = `FROM podcasts p LEFT OUTER JOIN streams s ON p.id = s.podcast`

func scanPodcasts(rows *sql.Rows) ([]*Podcast, error) {
	defer rows.Close()

	var podcasts []*Podcast
	for rows.Next() {
		var (
			p         Podcast
			refreshed int64
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Description, &p.Image, &refreshed, &p.Streams); err != nil {
			return nil, err
		}
		p.LastRefreshed = fromUnix(refreshed)
		podcasts = append(podcasts, &p)
	}
	return podcasts, rows.Err()
}

// Podcasts lists subscriptions in insertion order.
func (db *DB) Podcasts(ctx context.Context, limit, offset uint32) ([]*Podcast, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+podcastColumns+` `+podcastsFrom+` GROUP BY p.id ORDER BY p.id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	return scanPodcasts(rows)
}

// SearchPodcasts lists subscriptions whose title or description contains text.
func (db *DB) SearchPodcasts(ctx context.Context, text string, limit, offset uint32) ([]*Podcast, error) {
	pattern := "%" + escapeLike(text) + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+podcastColumns+` `+podcastsFrom+`
		WHERE p.title LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\'
		GROUP BY p.id ORDER BY p.id LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanPodcasts(rows)
}

// Podcast returns the subscription with the given id.
func (db *DB) Podcast(ctx context.Context, id int64) (*Podcast, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+podcastColumns+` `+podcastsFrom+` WHERE p.id = ? GROUP BY p.id`, id)
	if err != nil {
		return nil, err
	}

	podcasts, err := scanPodcasts(rows)
	if err != nil {
		return nil, err
	}
	if len(podcasts) == 0 {
		return nil, fmt.Errorf("podcast %d: %w", id, ErrNotFound)
	}
	return podcasts[0], nil
}

const streamColumns = `id, podcast, url, title, length, mime, published, description, duration`

func scanStream(scan func(...any) error) (*Stream, error) {
	var (
		s         Stream
		published int64
		duration  int64
	)
	if err := scan(&s.ID, &s.Podcast, &s.URL, &s.Title, &s.Length, &s.MIME, &published, &s.Description, &duration); err != nil {
		return nil, err
	}
	s.Published = fromUnix(published)
	s.Duration = time.Duration(duration) * time.Second
	return &s, nil
}

// Streams lists the streams of a podcast in feed order.
func (db *DB) Streams(ctx context.Context, podcast int64, limit, offset uint32) ([]*Stream, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+streamColumns+` FROM streams WHERE podcast = ? ORDER BY id LIMIT ? OFFSET ?`,
		podcast, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streams []*Stream
	for rows.Next() {
		s, err := scanStream(rows.Scan)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, rows.Err()
}

// Stream returns the stream with the given id.
func (db *DB) Stream(ctx context.Context, id int64) (*Stream, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+streamColumns+` FROM streams WHERE id = ?`, id)

	s, err := scanStream(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stream %d: %w", id, ErrNotFound)
	}
	return s, err
}

// InsertPodcast stores p and its streams, setting their ids.
func (db *DB) InsertPodcast(ctx context.Context, p *Podcast, streams []*Stream) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO podcasts (title, url, description, image, last_refreshed) VALUES (?, ?, ?, ?, ?)`,
		p.Title, p.URL, p.Description, p.Image, unix(p.LastRefreshed))
	if err != nil {
		return fmt.Errorf("insert podcast: %w", err)
	}

	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if err := insertStreams(ctx, tx, p.ID, streams); err != nil {
		return err
	}

	p.Streams = len(streams)
	return tx.Commit()
}

// ReplaceStreams swaps the streams of a podcast and marks it refreshed at refreshed.
func (db *DB) ReplaceStreams(ctx context.Context, podcast int64, streams []*Stream, refreshed time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM streams WHERE podcast = ?`, podcast); err != nil {
		return fmt.Errorf("delete streams: %w", err)
	}

	if err := insertStreams(ctx, tx, podcast, streams); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE podcasts SET last_refreshed = ? WHERE id = ?`, unix(refreshed), podcast); err != nil {
		return fmt.Errorf("touch podcast: %w", err)
	}

	return tx.Commit()
}

func insertStreams(ctx context.Context, tx *sql.Tx, podcast int64, streams []*Stream) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO streams (podcast, url, title, length, mime, published, description, duration) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range streams {
		res, err := stmt.ExecContext(ctx, podcast, s.URL, s.Title, s.Length, s.MIME, unix(s.Published), s.Description, int64(s.Duration/time.Second))
		if err != nil {
			return fmt.Errorf("insert stream %s: %w", s.URL, err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		s.Podcast = podcast
	}
	return nil
}

// DeletePodcast removes a subscription with its streams.
func (db *DB) DeletePodcast(ctx context.Context, id int64) error {
	return db.delete(ctx, `DELETE FROM podcasts WHERE id = ?`, "podcast", id)
}

// DeleteStream removes a single stream.
func (db *DB) DeleteStream(ctx context.Context, id int64) error {
	return db.delete(ctx, `DELETE FROM streams WHERE id = ?`, "stream", id)
}

func (db *DB) delete(ctx context.Context, query, what string, id int64) error {
	res, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return string(b)
}
