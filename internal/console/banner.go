package console

import "time"

// BannerLifetime is how long an error banner stays up without dismissal.
const BannerLifetime = 5 * time.Second

// Banner is the latest user-facing error.
type Banner struct {
	Message   string
	Status    int
	SetAt     time.Time
	ExpiresAt time.Time
}

// Active reports whether the banner is showing at now.
func (b Banner) Active(now time.Time) bool {
	return b.Message != "" && now.Before(b.ExpiresAt)
}
