package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/yuin/goldmark"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Store is the SQLite backed content store
type Store struct {
	db       *sql.DB
	markdown goldmark.Markdown
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database only lives as long as its single connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db, markdown: goldmark.New()}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id integer PRIMARY KEY,
			username text NOT NULL,
			groups_list text NOT NULL DEFAULT '',
			staff integer NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id integer PRIMARY KEY,
			user_id integer NOT NULL,
			title text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id integer PRIMARY KEY,
			topic_id integer NOT NULL,
			user_id integer NOT NULL,
			post_number integer NOT NULL,
			raw text NOT NULL,
			cooked text NOT NULL,
			post_type integer NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS custom_fields (
			record_type text NOT NULL,
			record_id integer NOT NULL,
			name text NOT NULL,
			value text NOT NULL,
			PRIMARY KEY (record_type, record_id, name)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Cook renders markdown raw text to HTML
func (s *Store) Cook(raw string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(raw), &buf); err != nil {
		return "", fmt.Errorf("failed to cook post: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// CreateUser inserts u and sets its ID when zero
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, groups_list, staff) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		u.ID, u.Username, strings.Join(u.Groups, "|"), u.Staff)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if u.ID == 0 {
		u.ID, err = res.LastInsertId()
	}
	return err
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	var groups string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, groups_list, staff FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &groups, &u.Staff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	if groups != "" {
		u.Groups = strings.Split(groups, "|")
	}
	return u, nil
}

// CreateTopic inserts t and sets its ID
func (s *Store) CreateTopic(ctx context.Context, t *Topic) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (user_id, title) VALUES (?, ?)`, t.UserID, t.Title)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTopic loads a topic by id
func (s *Store) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	t := &Topic{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title FROM topics WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load topic %d: %w", id, err)
	}
	return t, nil
}

// UpdateTopicTitle changes a topic title
func (s *Store) UpdateTopicTitle(ctx context.Context, id int64, title string) (*Topic, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE topics SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update topic %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTopic(ctx, id)
}

// CreatePost cooks the raw text, numbers the post within its topic and inserts it
func (s *Store) CreatePost(ctx context.Context, p *Post) error {
	if _, err := s.GetTopic(ctx, p.TopicID); err != nil {
		return err
	}

	cooked, err := s.Cook(p.Raw)
	if err != nil {
		return err
	}
	p.Cooked = cooked
	if p.PostType == 0 {
		p.PostType = PostTypeRegular
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(post_number), 0) + 1 FROM posts WHERE topic_id = ?`, p.TopicID).
		Scan(&p.PostNumber)
	if err != nil {
		return fmt.Errorf("failed to number post: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (topic_id, user_id, post_number, raw, cooked, post_type) VALUES (?, ?, ?, ?, ?, ?)`,
		p.TopicID, p.UserID, p.PostNumber, p.Raw, p.Cooked, p.PostType)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetPost loads a post by id
func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	p := &Post{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic_id, user_id, post_number, raw, cooked, post_type FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.TopicID, &p.UserID, &p.PostNumber, &p.Raw, &p.Cooked, &p.PostType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return p, nil
}

// GetField returns a custom field value
func (s *Store) GetField(ctx context.Context, recordType string, recordID int64, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM custom_fields WHERE record_type = ? AND record_id = ? AND name = ?`,
		recordType, recordID, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read custom field %s: %w", name, err)
	}
	return value, true, nil
}

// SetField creates or replaces a custom field value
func (s *Store) SetField(ctx context.Context, recordType string, recordID int64, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO custom_fields (record_type, record_id, name, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (record_type, record_id, name) DO UPDATE SET value = excluded.value`,
		recordType, recordID, name, value)
	if err != nil {
		return fmt.Errorf("failed to write custom field %s: %w", name, err)
	}
	return nil
}

// DeleteField removes a custom field
func (s *Store) DeleteField(ctx context.Context, recordType string, recordID int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM custom_fields WHERE record_type = ? AND record_id = ? AND name = ?`,
		recordType, recordID, name)
	if err != nil {
		return fmt.Errorf("failed to delete custom field %s: %w", name, err)
	}
	return nil
}

// UpdatePostRaw replaces the raw text of a post and recooks it
func (s *Store) UpdatePostRaw(ctx context.Context, id int64, raw string) (*Post, error) {
	cooked, err := s.Cook(raw)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET raw = ?, cooked = ? WHERE id = ?`, raw, cooked, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

// ListPosts returns the posts of a topic ordered by post number
func (s *Store) ListPosts(ctx context.Context, topicID int64) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic_id, user_id, post_number, raw, cooked, post_type FROM posts
		 WHERE topic_id = ? ORDER BY post_number`, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts of topic %d: %w", topicID, err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p := &Post{}
		if err := rows.Scan(&p.ID, &p.TopicID, &p.UserID, &p.PostNumber, &p.Raw, &p.Cooked, &p.PostType); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// FirstPost returns the opening post of a topic
func (s *Store) FirstPost(ctx context.Context, topicID int64) (*Post, error) {
	p := &Post{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic_id, user_id, post_number, raw, cooked, post_type FROM posts
		 WHERE topic_id = ? AND post_number = 1`, topicID).
		Scan(&p.ID, &p.TopicID, &p.UserID, &p.PostNumber, &p.Raw, &p.Cooked, &p.PostType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load first post of topic %d: %w", topicID, err)
	}
	return p, nil
}
