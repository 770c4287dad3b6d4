package dto

import "time"

// RotatorMemberDTO is one active rotator member as shown publicly
type RotatorMemberDTO struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// RotatorSnapshotDTO is the public rotator listing with the featured pick.
// Featured is nil and Members is empty (never nil) when nobody is active.
type RotatorSnapshotDTO struct {
	Members  []RotatorMemberDTO `json:"members"`
	Featured *RotatorMemberDTO  `json:"featured"`
	Count    int                `json:"count"`
}
