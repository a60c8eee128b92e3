// internal/domain/owner/key.go
package owner

import (
	"fmt"

	"gorm.io/gorm"
)

type kind uint8

const (
	kindNone kind = iota
	kindUser
	kindSession
)

// Key identifies the visitor that owns cart and wishlist rows.
// It is either an authenticated user id or an anonymous session id, never both.
type Key struct {
	kind      kind
	userID    uint
	sessionID string
}

// User returns the key of an authenticated user
func User(id uint) Key {
	return Key{kind: kindUser, userID: id}
}

// Session returns the key of an anonymous session
func Session(id string) Key {
	return Key{kind: kindSession, sessionID: id}
}

// IsZero reports whether k was never constructed through User or Session,
// or was constructed from an empty identifier.
func (k Key) IsZero() bool {
	switch k.kind {
	case kindUser:
		return k.userID == 0
	case kindSession:
		return k.sessionID == ""
	}
	return true
}

// UserID returns the user id and whether k is a user key
func (k Key) UserID() (uint, bool) {
	return k.userID, k.kind == kindUser
}

// Scope restricts a query to rows owned by k.
// Rows are matched on exactly one column; a zero key matches nothing.
func (k Key) Scope(db *gorm.DB) *gorm.DB {
	switch k.kind {
	case kindUser:
		return db.Where("user_id = ?", k.userID)
	case kindSession:
		return db.Where("session_id = ?", k.sessionID)
	}
	return db.Where("1 = 0")
}

// Columns returns the owner columns for a new row; exactly one is non-nil
func (k Key) Columns() (*uint, *string) {
	switch k.kind {
	case kindUser:
		id := k.userID
		return &id, nil
	case kindSession:
		id := k.sessionID
		return nil, &id
	}
	return nil, nil
}

func (k Key) String() string {
	switch k.kind {
	case kindUser:
		return fmt.Sprintf("user:%d", k.userID)
	case kindSession:
		return "session:" + k.sessionID
	}
	return "anonymous"
}

// Kind names the owner type without its identifier, for metric labels and logs
func (k Key) Kind() string {
	switch k.kind {
	case kindUser:
		return "user"
	case kindSession:
		return "session"
	}
	return "none"
}
