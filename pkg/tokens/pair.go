package tokens

import "time"

// Pair is an issued access/refresh token pair with their expiry times.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Role         string
}
