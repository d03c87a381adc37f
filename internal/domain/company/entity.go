package company

// Company is the slice of a company record the attendance core consumes.
type Company struct {
	ID                int64
	Name              string
	DefaultBreakHours float64
}
