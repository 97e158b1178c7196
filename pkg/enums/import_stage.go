package enums

import "fmt"

// ImportStage is a state of the reconciliation import flow.
type ImportStage string

const (
	ImportStageUploaded  ImportStage = "uploaded"
	ImportStageMapped    ImportStage = "mapped"
	ImportStagePreviewed ImportStage = "previewed"
	ImportStageApplied   ImportStage = "applied"
)

var validImportStages = []ImportStage{
	ImportStageUploaded,
	ImportStageMapped,
	ImportStagePreviewed,
	ImportStageApplied,
}

// String implements fmt.Stringer.
func (v ImportStage) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ImportStage.
func (v ImportStage) IsValid() bool {
	for _, candidate := range validImportStages {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseImportStage converts raw input into a ImportStage.
func ParseImportStage(value string) (ImportStage, error) {
	for _, candidate := range validImportStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid import stage %q", value)
}

// Next returns the stage that follows v, or false when v is terminal.
func (v ImportStage) Next() (ImportStage, bool) {
	switch v {
	case ImportStageUploaded:
		return ImportStageMapped, true
	case ImportStageMapped:
		return ImportStagePreviewed, true
	case ImportStagePreviewed:
		return ImportStageApplied, true
	default:
		return "", false
	}
}
