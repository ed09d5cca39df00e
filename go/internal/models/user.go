package models

// User represents a connected player
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
