package domain

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User        User
	ClientToken string
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user User, clientToken string) Member {
	return Member{User: user, ClientToken: clientToken}
}

func (m Member) DisplayName() string {
	if m.User.DisplayName == "" {
		return DefaultDisplayName
	}
	return m.User.DisplayName
}
