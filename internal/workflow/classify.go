package workflow

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/lehigh-university-libraries/imagepull/internal/remote"
)

// User-facing messages recorded in Session.Error
const (
	NoImagesMessage          = "No images found to download. Please check that the selected columns contain valid image URLs."
	ConnectionRefusedMessage = "Cannot connect to server. Please make sure the backend is running."
	TimeoutMessage           = "Request timed out. Please try again."
	FallbackMessage          = "Please try different columns."
	UploadFailedMessage      = "Failed to upload file. Please try again."
	UnsupportedFormatMessage = "Unsupported file type. Please upload a CSV or Excel file (.csv, .xlsx, .xls)."
	DatasetTooLargeMessage   = "File too large (max 10MB)."
	EmptyDatasetMessage      = "The selected file is empty."
)

// ClassifyFailure maps a failed image retrieval to the message shown to the
// user. First match wins: the service's own error message, connection
// refused, timeout, then the generic fallback.
func ClassifyFailure(err error) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnectionRefusedMessage
	}

	if isTimeout(err) {
		return TimeoutMessage
	}

	return FallbackMessage
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// uploadFailureMessage explains why a dataset never reached the service or
// was rejected by it
func uploadFailureMessage(err error) string {
	switch {
	case errors.Is(err, remote.ErrUnsupportedFormat):
		return UnsupportedFormatMessage
	case errors.Is(err, remote.ErrDatasetTooLarge):
		return DatasetTooLargeMessage
	case errors.Is(err, remote.ErrEmptyDataset):
		return EmptyDatasetMessage
	default:
		return UploadFailedMessage
	}
}
