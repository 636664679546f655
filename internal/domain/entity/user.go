package entity

import "time"

// UserData is a profile record for a registered principal. Pure metadata;
// membership in a manager is tracked separately through external records and
// AccessRecords.
type UserData struct {
	Address   string    `json:"address"`
	Principal Principal `json:"principal"`
	Username  string    `json:"username"`
	RealName  string    `json:"real_name"`
	CreatedAt time.Time `json:"created_at"`
}
