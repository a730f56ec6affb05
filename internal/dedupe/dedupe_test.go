package dedupe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mobiusengine/leads-engine/internal/models"
)

// MockLeadStore is a mock implementation of the database.LeadStore interface.
type MockLeadStore struct {
	mock.Mock
}

func (m *MockLeadStore) CreateLeadsTable() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockLeadStore) CreateUploadHistoryTable() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockLeadStore) InsertLead(lead *models.Lead) (int, error) {
	args := m.Called(lead)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadStore) MergeLead(candidate *models.Lead, merge func(existing, incoming *models.Lead) *models.Lead) (bool, error) {
	args := m.Called(candidate, merge)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadStore) ListLeads(limit, offset int) ([]models.Lead, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockLeadStore) CountLeads() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockLeadStore) UpdateLeadHook(id int, hook string) error {
	args := m.Called(id, hook)
	return args.Error(0)
}

func (m *MockLeadStore) GetStats() (*models.Stats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *MockLeadStore) InsertUploadRecord(filename string, checksum string, uploadedAt time.Time, status string) (int, error) {
	args := m.Called(filename, checksum, uploadedAt, status)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadStore) FinalizeUploadRecord(id int, inserted, updated, failed int, status string, errorMessage string) error {
	args := m.Called(id, inserted, updated, failed, status, errorMessage)
	return args.Error(0)
}

func (m *MockLeadStore) ListRecentUploads(limit int) ([]models.UploadRecord, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UploadRecord), args.Error(1)
}

func (m *MockLeadStore) IsFileAlreadyUploaded(checksum string) (bool, error) {
	args := m.Called(checksum)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadStore) ListDuplicateLeads() ([]models.Lead, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

func (m *MockLeadStore) ApplyDedupe(survivors []*models.Lead, deleteIDs []int) error {
	args := m.Called(survivors, deleteIDs)
	return args.Error(0)
}

func TestDeduper_Run(t *testing.T) {
	t.Run("Expect: a clean table to produce an empty result without touching the store", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return([]models.Lead{}, nil).Once()

		deduper := NewDeduper(store)
		result, err := deduper.Run()

		assert.NoError(t, err)
		assert.Equal(t, 0, result.DuplicateGroupsFound)
		assert.Equal(t, 0, result.RecordsRemoved)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "ApplyDedupe")
	})

	t.Run("Expect: the earliest-created lead to survive and be backfilled", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return([]models.Lead{
			{ID: 1, ProfileURL: "url-a", CurrentCompany: "Acme"},
			{ID: 4, ProfileURL: "url-a", Notes: "call back"},
			{ID: 9, ProfileURL: "url-a", Notes: "too late", EmailAddress: "a@x.com"},
		}, nil).Once()

		store.On("ApplyDedupe", mock.MatchedBy(func(survivors []*models.Lead) bool {
			if len(survivors) != 1 {
				return false
			}
			s := survivors[0]
			return s.ID == 1 && s.Notes == "call back" && s.EmailAddress == "a@x.com"
		}), []int{4, 9}).Return(nil).Once()

		deduper := NewDeduper(store)
		result, err := deduper.Run()

		assert.NoError(t, err)
		assert.Equal(t, 1, result.DuplicateGroupsFound)
		assert.Equal(t, 2, result.RecordsRemoved)
		store.AssertExpectations(t)
	})

	t.Run("Expect: multiple groups to be collapsed in one pass", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return([]models.Lead{
			{ID: 1, ProfileURL: "url-a", EmailAddress: "a@x.com"},
			{ID: 2, ProfileURL: "url-a"},
			{ID: 3, ProfileURL: "url-b"},
			{ID: 5, ProfileURL: "url-b", PhoneNumber: "555-0100"},
			{ID: 8, ProfileURL: "url-b"},
		}, nil).Once()

		// url-a's survivor needs no backfill, url-b's gains a phone number.
		store.On("ApplyDedupe", mock.MatchedBy(func(survivors []*models.Lead) bool {
			return len(survivors) == 1 && survivors[0].ID == 3 && survivors[0].PhoneNumber == "555-0100"
		}), []int{2, 5, 8}).Return(nil).Once()

		deduper := NewDeduper(store)
		result, err := deduper.Run()

		assert.NoError(t, err)
		assert.Equal(t, 2, result.DuplicateGroupsFound)
		assert.Equal(t, 3, result.RecordsRemoved)
		store.AssertExpectations(t)
	})

	t.Run("Expect: a second pass over a deduplicated table to remove nothing", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return([]models.Lead{
			{ID: 1, ProfileURL: "url-a"},
			{ID: 2, ProfileURL: "url-a"},
		}, nil).Once()
		store.On("ApplyDedupe", mock.Anything, []int{2}).Return(nil).Once()
		store.On("ListDuplicateLeads").Return([]models.Lead{}, nil).Once()

		deduper := NewDeduper(store)
		first, err := deduper.Run()
		assert.NoError(t, err)
		assert.Equal(t, 1, first.RecordsRemoved)

		second, err := deduper.Run()
		assert.NoError(t, err)
		assert.Equal(t, 0, second.DuplicateGroupsFound)
		assert.Equal(t, 0, second.RecordsRemoved)
		store.AssertExpectations(t)
	})

	t.Run("Expect: a listing failure to be returned", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return(nil, errors.New("connection reset")).Once()

		deduper := NewDeduper(store)
		result, err := deduper.Run()

		assert.Error(t, err)
		assert.Nil(t, result)
		store.AssertExpectations(t)
	})

	t.Run("Expect: an apply failure to be returned", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("ListDuplicateLeads").Return([]models.Lead{
			{ID: 1, ProfileURL: "url-a"},
			{ID: 2, ProfileURL: "url-a"},
		}, nil).Once()
		store.On("ApplyDedupe", mock.Anything, mock.Anything).Return(errors.New("deadlock detected")).Once()

		deduper := NewDeduper(store)
		result, err := deduper.Run()

		assert.Error(t, err)
		assert.Nil(t, result)
		store.AssertExpectations(t)
	})
}
