package telegram

// Auth holds the allow-list of telegram user ids permitted to issue
// admin commands. Everyone else gets a flat refusal.
type Auth struct {
	adminIDs map[int64]struct{}
}

func NewAuth(adminIDs []int64) *Auth {
	m := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		m[id] = struct{}{}
	}
	return &Auth{adminIDs: m}
}

func (a *Auth) IsAdmin(userID int64) bool {
	if a == nil {
		return false
	}
	_, ok := a.adminIDs[userID]
	return ok
}
