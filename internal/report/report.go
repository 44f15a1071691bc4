// Package report renders the pipeline's output types to the
// pretty-printed JSON artifacts the driver persists to disk.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
)

const dirPerm = 0o755
const filePerm = 0o644

// Writer persists JSON artifacts beneath a fixed output directory's
// json/ subdirectory, per §6's artifact layout.
type Writer struct {
	jsonDir string
}

// NewWriter creates the json/ subdirectory under outDir if absent.
func NewWriter(outDir string) (*Writer, error) {
	jsonDir := filepath.Join(outDir, "json")
	if err := os.MkdirAll(jsonDir, dirPerm); err != nil {
		return nil, manifesterr.Wrap(manifesterr.KindIO, err, "creating output directory "+jsonDir)
	}
	return &Writer{jsonDir: jsonDir}, nil
}

// BasicInfo writes json/basic_info.json.
func (w *Writer) BasicInfo(v interface{}) error {
	return w.write("basic_info.json", v)
}

// FunctionsList writes json/functions_list.json.
func (w *Writer) FunctionsList(v interface{}) error {
	return w.write("functions_list.json", v)
}

// Tree writes json/<root>.json for a materialized call tree rooted at root.
func (w *Writer) Tree(root string, v interface{}) error {
	return w.write(root+".json", v)
}

// IntegrityReport writes json/integrity_report.json.
func (w *Writer) IntegrityReport(v interface{}) error {
	return w.write("integrity_report.json", v)
}

func (w *Writer) write(fileName string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return manifesterr.Wrap(manifesterr.KindSerializationError, err, "encoding "+fileName)
	}

	path := filepath.Join(w.jsonDir, fileName)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return manifesterr.Wrap(manifesterr.KindIO, err, "writing "+path)
	}
	return nil
}
