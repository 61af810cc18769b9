package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/imagepull/internal/remote"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
)

// HandleUpload accepts a dataset as multipart field "file" and forwards it to
// the extraction service. Rejected datasets answer 200 with the session's
// error set, like any other recorded failure.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for the multipart envelope; the dataset limit itself
	// is enforced on the declared part size
	r.Body = http.MaxBytesReader(w, r.Body, remote.MaxDatasetSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	err = h.machine.Upload(r.Context(), workflow.Dataset{
		Name:   header.Filename,
		Size:   header.Size,
		Reader: file,
	})
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	h.writeJSON(w, h.view(nil))
}
