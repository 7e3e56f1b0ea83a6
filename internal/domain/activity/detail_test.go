package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetailValidate(t *testing.T) {
	offer := &Detail{CashOffer: &CashOfferDetail{OfferedPrice: 136_500_000, OriginalPrice: 150_000_000}}
	drive := &Detail{TestDrive: &TestDriveDetail{ScheduledAt: time.Now()}}

	assert.NoError(t, (*Detail)(nil).Validate(KindViewDetail))
	assert.NoError(t, (*Detail)(nil).Validate(KindTestDriveBooking))
	assert.NoError(t, offer.Validate(KindCashOffer))
	assert.NoError(t, drive.Validate(KindTestDriveBooking))

	assert.Error(t, (*Detail)(nil).Validate(KindCashOffer))
	assert.Error(t, drive.Validate(KindCashOffer))
	assert.Error(t, offer.Validate(KindCreditSimulation))
	assert.Error(t, drive.Validate(KindViewDetail))
	assert.Error(t, (&Detail{}).Validate(Kind("purchase")))
	assert.Error(t, (&Detail{CashOffer: &CashOfferDetail{OfferedPrice: 0}}).Validate(KindCashOffer))
	assert.Error(t, (&Detail{CashOffer: &CashOfferDetail{OfferedPrice: 1, Status: "won"}}).Validate(KindCashOffer))
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, KindTestDrive, KindTestDriveBooking.Canonical())
	assert.Equal(t, KindViewDetail, KindViewDetail.Canonical())
	assert.True(t, KindCashOffer.Recordable())
	assert.False(t, KindTestDrive.Recordable())
	assert.True(t, KindTestDrive.HighValue())
	assert.False(t, KindViewDetail.HighValue())
	assert.True(t, OfferRejected.Terminal())
	assert.False(t, OfferPending.Terminal())
}
