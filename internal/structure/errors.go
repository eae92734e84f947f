package structure

import "fmt"

// ConfigurationError aborts a whole operation for one book type.
type ConfigurationError struct {
	BookType string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for %s: %s: %v", e.BookType, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.BookType, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Reason classifies why an item was skipped.
type Reason string

const (
	ReasonNoItem         Reason = "no_item"
	ReasonNoAlias        Reason = "no_alias"
	ReasonNoMatch        Reason = "no_match"
	ReasonNoParent       Reason = "no_parent"
	ReasonParentUnlinked Reason = "parent_unlinked"
)

// Warning records an item that was skipped without any write being attempted.
type Warning struct {
	ItemID string `json:"item_id"`
	Alias  string `json:"alias,omitempty"`
	Reason Reason `json:"reason"`
}

func (w Warning) String() string {
	if w.Alias != "" {
		return fmt.Sprintf("%s (%s): %s", w.ItemID, w.Alias, w.Reason)
	}
	return fmt.Sprintf("%s: %s", w.ItemID, w.Reason)
}

// Failure records a store error for one item. Processing continues past it.
type Failure struct {
	ItemID string `json:"item_id"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.ItemID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }
