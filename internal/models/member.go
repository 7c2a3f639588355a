package models

// Member is a normalized member record derived from one roster CSV row.
//
// Phone is either empty ("no phone") or canonical international form as
// produced by the roster phone normalizer. Members are rebuilt from the feed
// on every run and never mutated after construction.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// HasPhone reports whether the member carries a canonical phone number.
func (m Member) HasPhone() bool {
	return m.Phone != ""
}
