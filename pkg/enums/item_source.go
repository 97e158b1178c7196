package enums

import "fmt"

// ItemSource records how an item was added to a session run list.
type ItemSource string

const (
	ItemSourceManual      ItemSource = "manual"
	ItemSourcePhotoIntake ItemSource = "photo_intake"
	ItemSourceCSVImport   ItemSource = "csv_import"
)

var validItemSources = []ItemSource{
	ItemSourceManual,
	ItemSourcePhotoIntake,
	ItemSourceCSVImport,
}

// String implements fmt.Stringer.
func (v ItemSource) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ItemSource.
func (v ItemSource) IsValid() bool {
	for _, candidate := range validItemSources {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseItemSource converts raw input into a ItemSource.
func ParseItemSource(value string) (ItemSource, error) {
	for _, candidate := range validItemSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item source %q", value)
}
