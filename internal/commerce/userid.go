package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

var jsonInteger = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)

// UserID is the opaque identifier returned by login. The API issues numeric ids
// and expects them back as JSON numbers, so numeric ids are written unquoted.
type UserID string

func (u UserID) String() string {
	return string(u)
}

func (u UserID) MarshalJSON() ([]byte, error) {
	if jsonInteger.MatchString(string(u)) {
		return []byte(u), nil
	}
	return json.Marshal(string(u))
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or a number: %w", err)
	}
	*u = UserID(n.String())
	return nil
}
