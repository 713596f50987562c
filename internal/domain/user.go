package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const avatarURLTemplate = "https://cdn.discordapp.com/avatars/%s/%s.png"

// User is the profile object handed out by the backend. Only a few fields are
// interpreted; the raw document is kept so it round-trips untouched.
type User struct {
	ID       string
	Username string
	Avatar   string

	raw json.RawMessage
}

type userFields struct {
	ID       json.RawMessage `json:"id"`
	Username string          `json:"username"`
	Avatar   string          `json:"avatar"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var fields userFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}

	id, err := flexibleID(fields.ID)
	if err != nil {
		return err
	}

	u.ID = id
	u.Username = fields.Username
	u.Avatar = fields.Avatar
	u.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}

	return json.Marshal(struct {
		ID       string `json:"id,omitempty"`
		Username string `json:"username,omitempty"`
		Avatar   string `json:"avatar,omitempty"`
	}{ID: u.ID, Username: u.Username, Avatar: u.Avatar})
}

// AvatarURL is empty unless both the id and the avatar hash are known.
func (u *User) AvatarURL() string {
	if u == nil || u.ID == "" || u.Avatar == "" {
		return ""
	}
	return fmt.Sprintf(avatarURLTemplate, u.ID, u.Avatar)
}

// DisplayName prefers the username and falls back to the id.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}

func flexibleID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode user id: %w", err)
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode user id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
