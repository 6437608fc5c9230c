package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// Classifier decides whether a source event qualifies for check generation.
type Classifier func(domain.SourceEvent) bool

// recordingTag is matched case-insensitively against resource item names.
const recordingTag = "recording"

// RecordingClassifier accepts events that carry at least one resource whose
// item name contains "recording" in any letter case. Events whose resources
// cannot be parsed are rejected.
func RecordingClassifier(ev domain.SourceEvent) bool {
	res, err := ParseResources(ev.Resources)
	if err != nil {
		return false
	}
	// Caser is stateful; one per call keeps the classifier goroutine safe.
	fold := cases.Fold()
	needle := fold.String(recordingTag)
	for _, r := range res {
		if strings.Contains(fold.String(r.ItemName), needle) {
			return true
		}
	}
	return false
}

// ParseResources decodes the resources field of a source event. The field is
// either a JSON array of {itemName} objects or a JSON string holding such an
// array. A missing or null field yields no resources.
func ParseResources(raw json.RawMessage) ([]domain.Resource, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse resources: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		raw = []byte(s)
	}
	var out []domain.Resource
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	return out, nil
}
