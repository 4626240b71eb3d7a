package http

// FileUploadResponse is returned by every upload endpoint that does not supply its own Respond.
type FileUploadResponse struct {
	Message      string  `json:"message"`
	FileID       string  `json:"file_id"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// ServeFileRequest addresses a stored blob. Download=true asks for an attachment
// disposition so browsers save checkout videos instead of playing them inline.
type ServeFileRequest struct {
	ID       string `uri:"id" binding:"required,uuid"`
	Download bool   `form:"download"`
}
