package models

// User is the full account row. Password and LastRevokeTime are only loaded
// on the authentication path and never serialized into responses.
type User struct {
	ID             string `json:"id" example:"V1StGXR8_Z5jdHi6B-myT"`
	Username       string `json:"username" example:"alice"`
	Password       string `json:"-"`
	Avatar         string `json:"avatar" example:"https://example.com/avatar.png"`
	Mail           string `json:"mail" example:"alice@example.com"`
	Website        string `json:"website" example:"https://alice.example.com"`
	TrustLevel     int    `json:"trustLevel" example:"0"`
	LastRevokeTime int64  `json:"-"`
}

// Profile is the public projection of a user returned by generic reads.
type Profile struct {
	ID         string `json:"id" example:"V1StGXR8_Z5jdHi6B-myT"`
	Username   string `json:"username" example:"alice"`
	Avatar     string `json:"avatar" example:"https://example.com/avatar.png"`
	Mail       string `json:"mail" example:"alice@example.com"`
	Website    string `json:"website" example:"https://alice.example.com"`
	TrustLevel int    `json:"trustLevel" example:"0"`
}
