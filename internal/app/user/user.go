/*
Package user contains the representation of a chat participant as the client sees it.

A Profile is keyed by name. Profiles are rebuilt from every roster snapshot; the
avatar URL is derived deterministically from the name so it never needs to travel
on the wire.
*/
package user

import (
	"net/url"
	"time"
)

// AvatarBaseURL is the identicon endpoint used to derive avatars from a seed.
const AvatarBaseURL = "https://api.dicebear.com/7.x/identicon/svg"

// Profile is one participant as displayed by the client.
// Fields use JSON tags for the bridge snapshot.
type Profile struct {

	// Name is the unique username of the participant.
	Name string `json:"name"`

	// Avatar is the identicon URL derived from Name.
	Avatar string `json:"avatar"`

	// IsTyping is true while a typing indicator for this user is live.
	IsTyping bool `json:"isTyping"`

	// LastSeen is the last time a message or typing event arrived from this user.
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// NewProfile returns a fresh, not-typing profile for name.
func NewProfile(name string) Profile {
	return Profile{
		Name:   name,
		Avatar: AvatarURL(name),
	}
}

// AvatarURL derives the identicon URL for name.
func AvatarURL(name string) string {
	return AvatarBaseURL + "?seed=" + url.QueryEscape(name) +
		"&backgroundType=gradientLinear&backgroundColor=b6e3f4,c0aede,d1d4f9"
}
