package activity

// RecordRequest is an interaction event as received from the storefront.
type RecordRequest struct {
	Name      string  `json:"name" binding:"required,max=255"`
	Phone     string  `json:"phone" binding:"required,max=32"`
	VehicleID string  `json:"vehicle_id" binding:"required"`
	Kind      Kind    `json:"kind" binding:"required"`
	Detail    *Detail `json:"detail,omitempty"`
}

type RecordResult struct {
	Success    bool   `json:"success"`
	CustomerID string `json:"customer_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type PatchOfferStatusRequest struct {
	Status OfferStatus `json:"status" binding:"required,oneof=accepted rejected"`
}
