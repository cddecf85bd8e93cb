package journey

import (
	"bytes"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
)

// mergePatch folds an RFC 7396 merge-patch document into the accumulated
// data, matching the original aggregate's `json_patch::merge` call on the
// Modified apply step.
func mergePatch(target json.RawMessage, patch json.RawMessage) (json.RawMessage, error) {
	if len(target) == 0 {
		target = json.RawMessage(`{}`)
	}
	// A patch that is not an object or array replaces the target wholesale
	// (RFC 7396); jsonpatch.MergePatch rejects such scalar patches itself.
	if trimmed := bytes.TrimSpace(patch); len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		return append(json.RawMessage(nil), trimmed...), nil
	}
	merged, err := jsonpatch.MergePatch(target, patch)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(merged), nil
}
