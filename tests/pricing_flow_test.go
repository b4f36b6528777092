// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	businessflow "github.com/AlexPupki/gtsv-pricing/business_flow"
	"github.com/AlexPupki/gtsv-pricing/config"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/pricing"
	"github.com/AlexPupki/gtsv-pricing/repository"
	testingutil "github.com/AlexPupki/gtsv-pricing/testing"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPricingFlow(testDB *testingutil.TestDB) businessflow.PricingFlow {
	return businessflow.NewPricingFlow(
		repository.NewServiceRepository(testDB.DB),
		repository.NewPriceListRepository(testDB.DB),
		repository.NewOfferRepository(testDB.DB),
		repository.NewPromoCodeRepository(testDB.DB),
		pricing.NewOfferMatcher(),
		&config.CacheConfig{},
		nil,
	)
}

func TestQuote(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newPricingFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		serviceRepo := repository.NewServiceRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		quoteReq := func(serviceUUID string) *dto.QuoteRequest {
			return &dto.QuoteRequest{
				ServiceUUID: serviceUUID,
				Duration:    60,
				GroupSize:   2,
				Date:        utils.UTCNow(),
				Channel:     models.ChannelWebsite,
				Segment:     models.SegmentStandard,
			}
		}

		t.Run("ResolvesFromPublishedList", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			list, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			rule, err := fixtures.CreateTestPriceRule(list.ID, service.ID, 8500)
			require.NoError(t, err)

			resp, err := flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.NoError(t, err)
			assert.Equal(t, rule.UUID.String(), resp.RuleUUID)
			assert.Equal(t, list.UUID.String(), resp.PriceListUUID)
			assert.Equal(t, utils.DefaultCurrency, resp.Currency)
			assert.Equal(t, float64(8500), resp.BasePrice)
			assert.Equal(t, float64(8500), resp.FinalPrice)
			assert.False(t, resp.Anomaly)
			assert.NotEmpty(t, resp.QuotedAt)
		})

		t.Run("AppliesRunningOffer", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			list, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 10000)
			require.NoError(t, err)
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)

			resp, err := flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.NoError(t, err)
			require.Len(t, resp.Offers, 1)
			assert.Equal(t, offer.UUID.String(), resp.Offers[0].OfferUUID)
			assert.Equal(t, float64(1000), resp.Offers[0].DiscountAmount)
			assert.Equal(t, float64(9000), resp.FinalPrice)
		})

		t.Run("DraftListDoesNotPrice", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			draft, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(draft.ID, service.ID, 8500)
			require.NoError(t, err)

			_, err = flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNoPriceResolved(err))
		})

		t.Run("ChannelScopeIsRespected", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			list, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelPartner, models.SegmentStandard)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 8500)
			require.NoError(t, err)

			// the only published list is partner-scoped; a website quote finds nothing
			_, err = flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNoPriceResolved(err))

			req := quoteReq(service.UUID.String())
			req.Channel = models.ChannelPartner
			_, err = flow.Quote(ctx, req, metadata)
			require.NoError(t, err)
		})

		t.Run("HigherVersionWins", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)

			v1, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(v1.ID, service.ID, 8000)
			require.NoError(t, err)

			v2, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			v2.Version = 2
			require.NoError(t, testDB.DB.Save(v2).Error)
			_, err = fixtures.CreateTestPriceRule(v2.ID, service.ID, 9500)
			require.NoError(t, err)

			resp, err := flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.NoError(t, err)
			assert.Equal(t, float64(9500), resp.BasePrice)
		})

		t.Run("UnknownServiceRejected", func(t *testing.T) {
			_, err := flow.Quote(ctx, quoteReq(uuid.New().String()), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsServiceNotFound(err))
		})

		t.Run("InactiveServiceRejected", func(t *testing.T) {
			service, err := fixtures.CreateTestService("snowmobile", 2)
			require.NoError(t, err)
			service.IsActive = utils.ToPtr(false)
			require.NoError(t, serviceRepo.Update(ctx, *service))

			_, err = flow.Quote(ctx, quoteReq(service.UUID.String()), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsServiceInactive(err))
		})

		t.Run("GroupSizeExceededRejected", func(t *testing.T) {
			service, err := fixtures.CreateTestService("jetski", 2)
			require.NoError(t, err)

			req := quoteReq(service.UUID.String())
			req.GroupSize = 3
			_, err = flow.Quote(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsGroupSizeExceeded(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQuotePromoPreview(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newPricingFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		codeRepo := repository.NewPromoCodeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		service, err := fixtures.CreateTestService("boat", 12)
		require.NoError(t, err)
		list, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
		require.NoError(t, err)
		_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 8500)
		require.NoError(t, err)

		quoteWithCode := func(code string) *dto.QuoteRequest {
			return &dto.QuoteRequest{
				ServiceUUID: service.UUID.String(),
				Duration:    60,
				GroupSize:   2,
				Date:        utils.UTCNow(),
				Channel:     models.ChannelWebsite,
				Segment:     models.SegmentStandard,
				PromoCode:   &code,
			}
		}

		t.Run("EligibleCode", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(15, false, 5)
			require.NoError(t, err)
			code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
			require.NoError(t, err)

			resp, err := flow.Quote(ctx, quoteWithCode(code.Code), metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.PromoPreview)
			assert.True(t, resp.PromoPreview.Eligible)
			assert.Nil(t, resp.PromoPreview.Reason)

			// a preview never consumes a use
			unchanged, err := codeRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, unchanged.UsedCount)
		})

		t.Run("UnknownCode", func(t *testing.T) {
			resp, err := flow.Quote(ctx, quoteWithCode("NO-SUCH-CODE"), metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.PromoPreview)
			assert.False(t, resp.PromoPreview.Eligible)
			require.NotNil(t, resp.PromoPreview.Reason)
		})

		t.Run("ExhaustedCode", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(15, false, 5)
			require.NoError(t, err)
			code, err := fixtures.CreateTestPromoCode(offer.ID, utils.ToPtr(1), false)
			require.NoError(t, err)
			require.NoError(t, codeRepo.IncrementUsage(ctx, code.ID))

			resp, err := flow.Quote(ctx, quoteWithCode(code.Code), metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.PromoPreview)
			assert.False(t, resp.PromoPreview.Eligible)
		})

		return nil
	})
	require.NoError(t, err)
}
