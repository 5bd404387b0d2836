// Package reporting turns the in-memory result tree into report files: the
// native XML serialization, the legacy XML document shape, and an HTML page.
// Transforms are pure; the only side effect is writing one output file, and
// any failure is surfaced as a fatal error distinct from test outcomes.
package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/testmux/testmux/types"
)

// WriteNativeXML serializes the result tree directly to path.
func WriteNativeXML(tree *types.ResultRoot, path string) error {
	data, err := xml.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing result tree: %w", err)
	}
	return writeReport(path, append([]byte(xml.Header), data...))
}

func writeReport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
