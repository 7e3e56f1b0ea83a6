package vehicle

// internal/domain/vehicle/entity.go
import (
	"fmt"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "tersedia"
	StatusSold      Status = "terjual"
)

func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusSold
}

// Vehicle is a unit of showroom inventory.
type Vehicle struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Make          string       `json:"make" db:"make"`
	Model         string       `json:"model" db:"model"`
	Year          int          `json:"year" db:"year"`
	Color         string       `json:"color,omitempty" db:"color"`
	Mileage       int          `json:"mileage" db:"mileage"`
	PlateNumber   string       `json:"plate_number" db:"plate_number"`
	ChassisNumber string       `json:"chassis_number" db:"chassis_number"`
	EngineNumber  string       `json:"engine_number" db:"engine_number"`
	BPKBNumber    string       `json:"bpkb_number" db:"bpkb_number"`
	Price         float64      `json:"price" db:"price"`
	DownPayment   float64      `json:"down_payment" db:"down_payment"`
	InstallmentA  Installment  `json:"installment_a" db:"installment_a"`
	InstallmentB  Installment  `json:"installment_b" db:"installment_b"`
	Status        Status       `json:"status" db:"status"`
	Photos        []string     `json:"photos" db:"photos"`
	Description   string       `json:"description,omitempty" db:"description"`
	Interactions  Interactions `json:"interactions" db:"interactions"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// Installment is one of the two advertised credit plans.
type Installment struct {
	TenorMonths    int     `json:"tenor_months"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// Interactions is the bag of lead activity stored inside the vehicle row.
type Interactions struct {
	TestDriveBookings []TestDriveBooking `json:"test_drive_bookings"`
	CashOffers        []CashOffer        `json:"cash_offers"`
	CreditSimulations []CreditSimulation `json:"credit_simulations"`
}

type TestDriveBooking struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CashOffer struct {
	ID              string               `json:"id"`
	CustomerName    string               `json:"customer_name"`
	Phone           string               `json:"phone"`
	OfferedPrice    float64              `json:"offered_price"`
	OriginalPrice   float64              `json:"original_price"`
	Discount        float64              `json:"discount"`
	DiscountPercent float64              `json:"discount_percent"`
	Status          activity.OfferStatus `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	DecidedAt       *time.Time           `json:"decided_at,omitempty"`
}

type CreditSimulation struct {
	ID                 string    `json:"id"`
	CustomerName       string    `json:"customer_name"`
	Phone              string    `json:"phone"`
	DownPayment        float64   `json:"down_payment"`
	TenorMonths        int       `json:"tenor_months"`
	MonthlyInstallment float64   `json:"monthly_installment"`
	CreatedAt          time.Time `json:"created_at"`
}

// Label is the human readable "Make Model Year" name.
func (v *Vehicle) Label() string {
	return fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year)
}

// Snapshot captures the fields denormalized into customer history.
func (v *Vehicle) Snapshot() customer.VehicleSnapshot {
	return customer.VehicleSnapshot{
		Make:  v.Make,
		Model: v.Model,
		Year:  v.Year,
		Price: v.Price,
	}
}

// FindCashOffer returns the embedded offer with the given id.
func (i *Interactions) FindCashOffer(id string) (*CashOffer, bool) {
	for idx := range i.CashOffers {
		if i.CashOffers[idx].ID == id {
			return &i.CashOffers[idx], true
		}
	}
	return nil, false
}

// PublicVehicle is the catalog view: no document numbers, no lead data.
type PublicVehicle struct {
	ID           uuid.UUID   `json:"id"`
	Make         string      `json:"make"`
	Model        string      `json:"model"`
	Year         int         `json:"year"`
	Color        string      `json:"color,omitempty"`
	Mileage      int         `json:"mileage"`
	Price        float64     `json:"price"`
	DownPayment  float64     `json:"down_payment"`
	InstallmentA Installment `json:"installment_a"`
	InstallmentB Installment `json:"installment_b"`
	Status       Status      `json:"status"`
	Photos       []string    `json:"photos"`
	Description  string      `json:"description,omitempty"`
}

func (v *Vehicle) Public() PublicVehicle {
	return PublicVehicle{
		ID:           v.ID,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Color:        v.Color,
		Mileage:      v.Mileage,
		Price:        v.Price,
		DownPayment:  v.DownPayment,
		InstallmentA: v.InstallmentA,
		InstallmentB: v.InstallmentB,
		Status:       v.Status,
		Photos:       v.Photos,
		Description:  v.Description,
	}
}
