package models

// UploadResult is the extraction service's answer to a dataset upload
type UploadResult struct {
	Columns  []string `json:"columns"`
	Filename string   `json:"filename"` // opaque token into the service's temporary storage
}

// DownloadRequest asks the service to retrieve the images referenced by columns
type DownloadRequest struct {
	Filename     string   `json:"filename"`
	Columns      []string `json:"columns"`
	DownloadPath string   `json:"downloadPath"` // server-side organization hint only
}

// DownloadResponse carries every image the service managed to retrieve
type DownloadResponse struct {
	Message     string            `json:"message"`
	TotalImages int               `json:"total_images"`
	Images      []ImageDescriptor `json:"images"`
}

// ImageDescriptor is one retrieved image, base64 encoded
type ImageDescriptor struct {
	Column    string `json:"column"`
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	Data      string `json:"data"`
}

// ErrorResponse is the structured body sent with non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}
