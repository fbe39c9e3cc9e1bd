package model

// Label is the classification outcome for a message unit.
type Label string

// Classification labels.
const (
	LabelA2P Label = "A2P"
	LabelP2P Label = "P2P"
)

// IsValid reports whether l is one of the known labels.
func (l Label) IsValid() bool {
	return l == LabelA2P || l == LabelP2P
}

// Kept reports whether units with this label continue down the pipeline.
func (l Label) Kept() bool {
	return l == LabelA2P
}
