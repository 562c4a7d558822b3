package dto

type UserList struct {
	Items []UserProfile `json:"items"`
	Total int           `json:"total"`
}
