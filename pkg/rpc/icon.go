package rpc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
)

// allowedIconExtensions whitelists the file extensions the icon
// endpoint will serve.
var allowedIconExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",
}

// IconResponse is the GET /api/icon?path= payload: raw bytes plus the
// content type pkg/httpapi should set on the response.
type IconResponse struct {
	ContentType string
	Data        []byte
}

// Icon implements GET /api/icon?path=, rejecting any extension outside
// the whitelist so this endpoint can't be used to exfiltrate arbitrary
// local files.
func (h *Handlers) Icon(path string) (IconResponse, *qlerr.Error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := allowedIconExtensions[ext]
	if !ok {
		return IconResponse{}, qlerr.Internal(fmt.Errorf("unsupported icon extension %q", ext))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return IconResponse{}, qlerr.FileNotFound(path, err)
	}
	return IconResponse{ContentType: contentType, Data: data}, nil
}
