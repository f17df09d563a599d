package bookmarks

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	// ErrNotFound is returned for unknown bookmark ids.
	ErrNotFound = errors.New("bookmark not found")

	// ErrNotFolder is returned when a stream is used as a parent.
	ErrNotFolder = errors.New("bookmark is not a folder")
)

// Bucket names
var (
	bucketBookmarks = []byte("bookmarks")
	bucketChildren  = []byte("children")
)

// rootKey names the children bucket of the root folder.
const rootKey = "root"

// Bookmark is a stored folder or stream.
type Bookmark struct {
	ID          string    `json:"id"`
	Parent      string    `json:"parent,omitempty"`
	Folder      bool      `json:"folder"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	MIME        string    `json:"mime,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Created     time.Time `json:"created"`

	// Seq is the position within the parent.
	Seq uint64 `json:"seq"`

	// Children is filled on read for folders.
	Children int `json:"-"`
}

// Store persists bookmarks in a bbolt database.
type Store struct {
	db *bolt.DB
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBookmarks, bucketChildren} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func childrenKey(parent string) []byte {
	if parent == "" {
		return []byte(rootKey)
	}
	return []byte(parent)
}

func get(tx *bolt.Tx, id string) (*Bookmark, error) {
	data := tx.Bucket(bucketBookmarks).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	var b Bookmark
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("corrupt bookmark %s: %w", id, err)
	}

	if b.Folder {
		if children := tx.Bucket(bucketChildren).Bucket(childrenKey(b.ID)); children != nil {
			b.Children = children.Stats().KeyN
		}
	}
	return &b, nil
}

func put(tx *bolt.Tx, b *Bookmark) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketBookmarks).Put([]byte(b.ID), data)
}

// Get returns the bookmark with the given id.
func (s *Store) Get(id string) (*Bookmark, error) {
	var b *Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		b, err = get(tx, id)
		return err
	})
	return b, err
}

// Add stores b under its Parent, an empty parent meaning the root. It assigns ID, Seq and Created.
func (s *Store) Add(b *Bookmark) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if b.Parent != "" {
			parent, err := get(tx, b.Parent)
			if err != nil {
				return err
			}
			if !parent.Folder {
				return fmt.Errorf("%s: %w", parent.ID, ErrNotFolder)
			}
		}

		children, err := tx.Bucket(bucketChildren).CreateBucketIfNotExists(childrenKey(b.Parent))
		if err != nil {
			return err
		}

		seq, err := children.NextSequence()
		if err != nil {
			return err
		}

		b.ID = uuid.NewString()
		b.Seq = seq
		if b.Created.IsZero() {
			b.Created = time.Now().UTC()
		}

		if err := children.Put(itob(seq), []byte(b.ID)); err != nil {
			return err
		}
		return put(tx, b)
	})
}

// Children returns up to limit children of parent after skipping offset, in insertion order.
func (s *Store) Children(parent string, limit, offset uint32) ([]*Bookmark, error) {
	var list []*Bookmark

	err := s.db.View(func(tx *bolt.Tx) error {
		if parent != "" {
			p, err := get(tx, parent)
			if err != nil {
				return err
			}
			if !p.Folder {
				return fmt.Errorf("%s: %w", p.ID, ErrNotFolder)
			}
		}

		children := tx.Bucket(bucketChildren).Bucket(childrenKey(parent))
		if children == nil {
			return nil
		}

		c := children.Cursor()
		var skipped uint32
		for k, v := c.First(); k != nil && uint32(len(list)) < limit; k, v = c.Next() {
			if skipped < offset {
				skipped++
				continue
			}

			b, err := get(tx, string(v))
			if err != nil {
				return err
			}
			list = append(list, b)
		}
		return nil
	})

	return list, err
}

// Search returns bookmarks whose title, url or description contains text, ignoring case.
// Matches are ordered by creation time.
func (s *Store) Search(text string, limit, offset uint32) ([]*Bookmark, error) {
	text = strings.ToLower(text)

	var matches []*Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBookmarks).ForEach(func(k, _ []byte) error {
			b, err := get(tx, string(k))
			if err != nil {
				return err
			}

			for _, field := range []string{b.Title, b.URL, b.Description} {
				if strings.Contains(strings.ToLower(field), text) {
					matches = append(matches, b)
					break
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].Created.Equal(matches[j].Created) {
			return matches[i].Created.Before(matches[j].Created)
		}
		return matches[i].Seq < matches[j].Seq
	})

	start := min(int(offset), len(matches))
	end := min(start+int(limit), len(matches))
	return matches[start:end], nil
}

// Remove deletes a bookmark, and everything below it for folders.
func (s *Store) Remove(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := get(tx, id)
		if err != nil {
			return err
		}

		if parent := tx.Bucket(bucketChildren).Bucket(childrenKey(b.Parent)); parent != nil {
			if err := parent.Delete(itob(b.Seq)); err != nil {
				return err
			}
		}

		return remove(tx, b)
	})
}

func remove(tx *bolt.Tx, b *Bookmark) error {
	if b.Folder {
		all := tx.Bucket(bucketChildren)
		if children := all.Bucket(childrenKey(b.ID)); children != nil {
			var ids []string
			if err := children.ForEach(func(_, v []byte) error {
				ids = append(ids, string(v))
				return nil
			}); err != nil {
				return err
			}

			for _, id := range ids {
				child, err := get(tx, id)
				if err != nil {
					return err
				}
				if err := remove(tx, child); err != nil {
					return err
				}
			}

			if err := all.DeleteBucket(childrenKey(b.ID)); err != nil {
				return err
			}
		}
	}

	return tx.Bucket(bucketBookmarks).Delete([]byte(b.ID))
}
