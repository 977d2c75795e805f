package ledger

import "strconv"

// DateLayout is the calendar-date form stored in Record.LastReset.
// Lexicographic comparison of two dates in this layout matches
// chronological order.
const DateLayout = "2006-01-02"

// Record is one tracked individual's daily ledger state.
type Record struct {
	// Limit is the daily calorie limit, always positive.
	Limit int `json:"limit"`
	// Used accumulates calories consumed since the last reset. It can go
	// negative transiently when a caller logs a negative correction.
	Used int `json:"used"`
	// LastReset is the date (in the engine's zone) on which Used was last
	// known to be valid. It never moves backward.
	LastReset string `json:"last_reset"`
}

// Remaining is derived, never stored.
func (r Record) Remaining() int {
	return r.Limit - r.Used
}

// Status is what the engine returns to callers after any operation.
type Status struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// UserKey builds the ledger key for a bare user, e.g. in a private chat.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ChatUserKey builds the composite key for a user within a chat. Both
// components render from integers, so ":" can never be produced by either
// side and keys cannot collide.
func ChatUserKey(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}
