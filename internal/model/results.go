package model

import "encoding/json"

// CorrelationStatus tells a computed coefficient apart from the degenerate cases.
type CorrelationStatus int

const (
	StatusDefined CorrelationStatus = iota
	StatusInsufficientRows
	StatusZeroVariance
)

func (s CorrelationStatus) String() string {
	switch s {
	case StatusDefined:
		return "defined"
	case StatusInsufficientRows:
		return "insufficient_rows"
	case StatusZeroVariance:
		return "zero_variance"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the status name.
func (s CorrelationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a status name written by MarshalJSON.
func (s *CorrelationStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseCorrelationStatus(name)
	return nil
}

// ParseCorrelationStatus maps a status name back to its value.
// Unknown names are treated as insufficient data.
func ParseCorrelationStatus(name string) CorrelationStatus {
	switch name {
	case "defined":
		return StatusDefined
	case "zero_variance":
		return StatusZeroVariance
	default:
		return StatusInsufficientRows
	}
}

// Correlation is a Pearson coefficient over N paired observations.
// R and RSquared are only meaningful when Status is StatusDefined.
type Correlation struct {
	R        float64           `json:"r"`
	RSquared float64           `json:"r_squared"`
	N        int               `json:"n"`
	Status   CorrelationStatus `json:"status"`
}

// Defined reports whether the coefficient could be computed.
func (c Correlation) Defined() bool {
	return c.Status == StatusDefined
}

// CorrelationResult is the r² of one partition of a table.
type CorrelationResult struct {
	Group string `json:"group"`
	Correlation
}

// DriverScore is the r² between the performance measure and one candidate driver.
type DriverScore struct {
	Driver string `json:"driver"`
	Correlation
}

// SubsetCorrelation is the r² over a filtered slice of the whole table.
type SubsetCorrelation struct {
	Label string `json:"label"`
	Correlation
}

// GroupedCorrelation holds the per-partition results for one grouping key.
type GroupedCorrelation struct {
	GroupBy string              `json:"group_by"`
	X       string              `json:"x"`
	Y       string              `json:"y"`
	Results []CorrelationResult `json:"results"`
}
