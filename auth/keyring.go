// Package auth stores per-source credentials in the system keyring.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/mo"
	"github.com/trawl-media/trawl/constant"
	"github.com/zalando/go-keyring"
)

// Credentials are the login of one source.
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Anonymous reports whether no user is set.
func (c Credentials) Anonymous() bool {
	return c.User == ""
}

// Set persists the credentials of sourceID.
func Set(sourceID string, c Credentials) error {
	if sourceID == "" {
		return errors.New("source id cannot be empty")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return keyring.Set(constant.Trawl, sourceID, string(data))
}

// Get returns the credentials of sourceID, None when nothing is stored.
func Get(sourceID string) (mo.Option[Credentials], error) {
	data, err := keyring.Get(constant.Trawl, sourceID)
	if errors.Is(err, keyring.ErrNotFound) {
		return mo.None[Credentials](), nil
	}
	if err != nil {
		return mo.None[Credentials](), err
	}

	var c Credentials
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return mo.None[Credentials](), fmt.Errorf("corrupt credentials for %s: %w", sourceID, err)
	}
	return mo.Some(c), nil
}

// Delete forgets the credentials of sourceID. Deleting missing credentials is not an error.
func Delete(sourceID string) error {
	err := keyring.Delete(constant.Trawl, sourceID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
