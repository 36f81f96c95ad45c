package enums

// RefundStatus tracks a refund raised for a completed payment whose order was
// cancelled. Execution against the provider happens out of band.
type RefundStatus string

const (
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
)

// String implements fmt.Stringer.
func (r RefundStatus) String() string {
	return string(r)
}
