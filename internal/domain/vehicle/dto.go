// internal/domain/vehicle/dto.go
package vehicle

import (
	"time"

	"showroom-service/internal/domain/activity"
)

// CreateVehicleRequest for adding a vehicle to inventory
type CreateVehicleRequest struct {
	Make          string      `json:"make" binding:"required,max=100"`
	Model         string      `json:"model" binding:"required,max=100"`
	Year          int         `json:"year" binding:"required,min=1950,max=2100"`
	Color         string      `json:"color" binding:"max=50"`
	Mileage       int         `json:"mileage" binding:"min=0"`
	PlateNumber   string      `json:"plate_number" binding:"required,max=20"`
	ChassisNumber string      `json:"chassis_number" binding:"max=64"`
	EngineNumber  string      `json:"engine_number" binding:"max=64"`
	BPKBNumber    string      `json:"bpkb_number" binding:"max=64"`
	Price         float64     `json:"price" binding:"required,gt=0"`
	DownPayment   float64     `json:"down_payment" binding:"min=0"`
	InstallmentA  Installment `json:"installment_a"`
	InstallmentB  Installment `json:"installment_b"`
	Photos        []string    `json:"photos"`
	Description   string      `json:"description"`
}

// UpdateVehicleRequest for updating vehicle details
type UpdateVehicleRequest struct {
	Make          *string      `json:"make" binding:"omitempty,max=100"`
	Model         *string      `json:"model" binding:"omitempty,max=100"`
	Year          *int         `json:"year" binding:"omitempty,min=1950,max=2100"`
	Color         *string      `json:"color"`
	Mileage       *int         `json:"mileage" binding:"omitempty,min=0"`
	PlateNumber   *string      `json:"plate_number" binding:"omitempty,max=20"`
	ChassisNumber *string      `json:"chassis_number"`
	EngineNumber  *string      `json:"engine_number"`
	BPKBNumber    *string      `json:"bpkb_number"`
	Price         *float64     `json:"price" binding:"omitempty,gt=0"`
	DownPayment   *float64     `json:"down_payment" binding:"omitempty,min=0"`
	InstallmentA  *Installment `json:"installment_a"`
	InstallmentB  *Installment `json:"installment_b"`
	Status        *Status      `json:"status"`
	Photos        []string     `json:"photos"`
	Description   *string      `json:"description"`
}

// ListFilters for listing/searching vehicles
type ListFilters struct {
	Status    Status  `form:"status"`
	Make      string  `form:"make"`
	Search    string  `form:"search"` // make, model or plate
	MinPrice  float64 `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice  float64 `form:"max_price" binding:"omitempty,min=0"`
	Page      int     `form:"page" binding:"omitempty,min=1"`
	PageSize  int     `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string  `form:"sort_by"` // created_at, price, year, make
	SortOrder string  `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

type ListResponse struct {
	Vehicles   []Vehicle `json:"vehicles"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

type CatalogResponse struct {
	Vehicles   []PublicVehicle `json:"vehicles"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// LeadContact identifies the storefront visitor behind a lead.
type LeadContact struct {
	Name  string `json:"name" binding:"required,max=255"`
	Phone string `json:"phone" binding:"required,max=32"`
}

type BookTestDriveRequest struct {
	LeadContact
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

type CashOfferRequest struct {
	LeadContact
	OfferedPrice float64 `json:"offered_price" binding:"required,gt=0"`
	Notes        string  `json:"notes" binding:"max=1000"`
}

type CreditSimulationRequest struct {
	LeadContact
	DownPayment float64 `json:"down_payment" binding:"min=0"`
	TenorMonths int     `json:"tenor_months" binding:"required,min=1,max=84"`
}

type ViewRequest struct {
	LeadContact
}

type DecideOfferRequest struct {
	Status activity.OfferStatus `json:"status" binding:"required,oneof=accepted rejected"`
}

type ValidateOfferRequest struct {
	VehiclePrice float64 `json:"vehicle_price" binding:"required,gt=0"`
	OfferedPrice float64 `json:"offered_price" binding:"required,gt=0"`
}

// CreditSimulationResult is returned to the storefront after a simulation.
type CreditSimulationResult struct {
	VehicleID          string  `json:"vehicle_id"`
	Price              float64 `json:"price"`
	DownPayment        float64 `json:"down_payment"`
	Principal          float64 `json:"principal"`
	TenorMonths        int     `json:"tenor_months"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}
