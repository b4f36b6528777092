// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	businessflow "github.com/AlexPupki/gtsv-pricing/business_flow"
	"github.com/AlexPupki/gtsv-pricing/config"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	testingutil "github.com/AlexPupki/gtsv-pricing/testing"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublicationFlow(testDB *testingutil.TestDB) businessflow.PublicationFlow {
	return businessflow.NewPublicationFlow(
		repository.NewPriceListRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		&config.CacheConfig{},
		nil,
		testDB.DB,
	)
}

func TestPublishPriceList(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newPublicationFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		listRepo := repository.NewPriceListRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		t.Run("PublishDraft", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 8500)
			require.NoError(t, err)

			resp, err := flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: list.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, list.Version, resp.Version)
			assert.Empty(t, resp.Conflicts)

			published, err := listRepo.ByID(ctx, list.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusPublished, published.Status)
			assert.NotNil(t, published.PublishedAt)
			assert.Equal(t, list.LockVersion+1, published.LockVersion)
		})

		t.Run("PublishArchivesPreviousVersion", func(t *testing.T) {
			old, err := fixtures.CreatePublishedPriceList(models.SeasonPeak, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)

			draft := &models.PriceList{
				LineageID:       old.LineageID,
				Name:            old.Name,
				Season:          old.Season,
				Channel:         old.Channel,
				Segment:         old.Segment,
				Currency:        old.Currency,
				Version:         old.Version + 1,
				ParentVersionID: &old.ID,
				ValidFrom:       old.ValidFrom,
			}
			require.NoError(t, listRepo.Save(ctx, draft))

			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: draft.UUID.String()}, metadata)
			require.NoError(t, err)

			archived, err := listRepo.ByID(ctx, old.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusArchived, archived.Status)

			current, err := listRepo.ByID(ctx, draft.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusPublished, current.Status)
		})

		t.Run("PublishArchivesSameScopeAcrossLineages", func(t *testing.T) {
			first, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelOffice, models.SegmentCorporate)
			require.NoError(t, err)
			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: first.UUID.String()}, metadata)
			require.NoError(t, err)

			// independently created list, fresh lineage, same scope
			second, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelOffice, models.SegmentCorporate)
			require.NoError(t, err)
			require.NotEqual(t, first.LineageID, second.LineageID)

			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: second.UUID.String()}, metadata)
			require.NoError(t, err)

			displaced, err := listRepo.ByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusArchived, displaced.Status)
			assert.NotNil(t, displaced.ArchivedAt)

			current, err := listRepo.ByID(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusPublished, current.Status)
		})

		t.Run("PublishBlockedByHighSeverityConflict", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelPartner, models.SegmentVIP)
			require.NoError(t, err)
			service, err := fixtures.CreateTestService("jetski", 2)
			require.NoError(t, err)

			broken := &models.PriceRule{
				PriceListID: list.ID,
				ServiceID:   service.ID,
				BasePrice:   3000,
				MinDuration: utils.ToPtr(120),
				MaxDuration: utils.ToPtr(60),
				IsActive:    utils.ToPtr(true),
			}
			require.NoError(t, testDB.DB.Create(broken).Error)

			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: list.UUID.String()}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPublishBlocked(err))

			// the draft stays a draft
			unchanged, err := listRepo.ByID(ctx, list.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusDraft, unchanged.Status)
		})

		t.Run("BlockedPublishLeavesOldVersionPublished", func(t *testing.T) {
			old, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelOffice, models.SegmentCorporate)
			require.NoError(t, err)
			service, err := fixtures.CreateTestService("yacht", 10)
			require.NoError(t, err)

			draft := &models.PriceList{
				LineageID: old.LineageID,
				Name:      old.Name,
				Season:    old.Season,
				Channel:   old.Channel,
				Segment:   old.Segment,
				Currency:  old.Currency,
				Version:   old.Version + 1,
				ValidFrom: old.ValidFrom,
			}
			require.NoError(t, listRepo.Save(ctx, draft))

			broken := &models.PriceRule{
				PriceListID:  draft.ID,
				ServiceID:    service.ID,
				BasePrice:    50000,
				MinGroupSize: utils.ToPtr(8),
				MaxGroupSize: utils.ToPtr(2),
				IsActive:     utils.ToPtr(true),
			}
			require.NoError(t, testDB.DB.Create(broken).Error)

			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: draft.UUID.String()}, metadata)
			require.Error(t, err)

			stillPublished, err := listRepo.ByID(ctx, old.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusPublished, stillPublished.Status)
		})

		t.Run("PublishAlreadyPublishedIsNoOp", func(t *testing.T) {
			published, err := fixtures.CreatePublishedPriceList(models.SeasonLow, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)

			resp, err := flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: published.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, published.Version, resp.Version)

			// the retry must not touch the stored row
			reloaded, err := listRepo.ByUUID(ctx, published.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusPublished, reloaded.Status)
			assert.Equal(t, published.LockVersion, reloaded.LockVersion)
		})

		t.Run("PublishArchivedRejected", func(t *testing.T) {
			archived, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			_, err = flow.ArchivePriceList(ctx, &dto.ArchivePriceListRequest{UUID: archived.UUID.String()}, metadata)
			require.NoError(t, err)

			_, err = flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: archived.UUID.String()}, metadata)
			require.Error(t, err)

			var bizErr *businessflow.BusinessError
			require.ErrorAs(t, err, &bizErr)
			assert.Equal(t, "PRICE_LIST_NOT_DRAFT", bizErr.Code)
		})

		t.Run("PublishUnknownListRejected", func(t *testing.T) {
			_, err := flow.PublishPriceList(ctx, &dto.PublishPriceListRequest{UUID: "4a1b4d77-33cf-4e26-a1a4-9f2c1f0a9b10"}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPriceListNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestArchivePriceList(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newPublicationFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		listRepo := repository.NewPriceListRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		t.Run("ArchivePublished", func(t *testing.T) {
			published, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)

			_, err = flow.ArchivePriceList(ctx, &dto.ArchivePriceListRequest{UUID: published.UUID.String()}, metadata)
			require.NoError(t, err)

			archived, err := listRepo.ByID(ctx, published.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusArchived, archived.Status)
			assert.NotNil(t, archived.ArchivedAt)
		})

		t.Run("ArchiveDraft", func(t *testing.T) {
			draft, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelPartner, models.SegmentStandard)
			require.NoError(t, err)

			_, err = flow.ArchivePriceList(ctx, &dto.ArchivePriceListRequest{UUID: draft.UUID.String()}, metadata)
			require.NoError(t, err)
		})

		t.Run("ArchivedIsTerminal", func(t *testing.T) {
			published, err := fixtures.CreatePublishedPriceList(models.SeasonPeak, models.ChannelOffice, models.SegmentVIP)
			require.NoError(t, err)

			_, err = flow.ArchivePriceList(ctx, &dto.ArchivePriceListRequest{UUID: published.UUID.String()}, metadata)
			require.NoError(t, err)

			_, err = flow.ArchivePriceList(ctx, &dto.ArchivePriceListRequest{UUID: published.UUID.String()}, metadata)
			require.Error(t, err)

			var bizErr *businessflow.BusinessError
			require.ErrorAs(t, err, &bizErr)
			assert.Equal(t, "INVALID_STATUS_CHANGE", bizErr.Code)
		})

		return nil
	})
	require.NoError(t, err)
}
