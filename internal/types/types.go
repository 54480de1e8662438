package types

// SubmitRequest is the payload the agent posts to /api/submit
type SubmitRequest struct {
	UserID           string `json:"userId" binding:"required"`
	TotalPastes      int    `json:"totalPastes"`
	TotalLinesPasted int    `json:"totalLinesPasted"`
	Date             string `json:"date" binding:"required"`
	OS               string `json:"os"`
	EditorVersion    string `json:"editorVersion"`
}

// SubmitResponse is returned on a successful submission
type SubmitResponse struct {
	UserID      string `json:"userId"`
	DeviceToken string `json:"deviceToken,omitempty"`
	Rank        int    `json:"rank"`
}

// UsernameRequest sets a user's display name
type UsernameRequest struct {
	Username string `json:"username" binding:"required"`
}
