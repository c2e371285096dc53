package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// MockArchiveRepo is a mock implementation of ArchiveRepo
type MockArchiveRepo struct {
	mock.Mock
}

func (m *MockArchiveRepo) Create(ctx context.Context, archive *types.Archive) (uuid.UUID, error) {
	args := m.Called(ctx, archive)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockArchiveRepo) List(ctx context.Context, filter types.ArchiveFilter) ([]types.Archive, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Archive), args.Error(1)
}

func (m *MockArchiveRepo) Recent(ctx context.Context, limit int) ([]types.Archive, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Archive), args.Error(1)
}

func (m *MockArchiveRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Archive, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Archive), args.Error(1)
}

func (m *MockArchiveRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateArchiveParams, at time.Time) error {
	args := m.Called(ctx, id, params, at)
	return args.Error(0)
}

func (m *MockArchiveRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// stubbornStore refuses to remove files.
type stubbornStore struct {
	FileStore
}

func (s stubbornStore) Remove(string) error {
	return errors.New("device busy")
}

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:       1024,
		AllowedExtensions: []string{"pdf", "doc", "docx", "jpg", "jpeg", "png", "xls", "xlsx"},
	}
}

func setupArchiveServiceTest() (*ArchiveServiceImpl, *MockArchiveRepo, afero.Fs) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockArchiveRepo)
	memFs := afero.NewMemMapFs()
	service := NewArchiveService(mockRepo, NewAferoStore(memFs), testUploadConfig(), logger)
	return service, mockRepo, memFs
}

func storedFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, "/")
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func uploadParams(filename, mimeType, content string) types.UploadArchiveParams {
	return types.UploadArchiveParams{
		Title:            "STNK B 1234 XYZ",
		Description:      "Registration certificate",
		Category:         types.CategoryKendaraan,
		OriginalFilename: filename,
		MimeType:         mimeType,
		Size:             int64(len(content)),
		Content:          strings.NewReader(content),
	}
}

var storedNamePattern = regexp.MustCompile(`^\d+-[0-9a-f-]{36}\.pdf$`)

func TestArchiveServiceImpl_Upload(t *testing.T) {
	ctx := context.Background()
	uploader := types.Identity{ID: uuid.New(), Username: "budi", Role: types.RoleUser}

	t.Run("success", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		newID := uuid.New()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *types.Archive) bool {
			return a.UploaderID == uploader.ID &&
				a.OriginalFilename == "stnk.pdf" &&
				a.MimeType == "application/pdf" &&
				a.FileSize == 8 &&
				storedNamePattern.MatchString(a.Filename)
		})).Return(newID, nil).Once()

		id, err := service.Upload(ctx, uploader, uploadParams("stnk.pdf", "application/pdf", "%PDF-1.4"))
		require.NoError(t, err)
		assert.Equal(t, newID, id)

		files := storedFiles(t, memFs)
		require.Len(t, files, 1)
		assert.Regexp(t, storedNamePattern, files[0])
		mockRepo.AssertExpectations(t)
	})

	t.Run("legacy office types are accepted", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), nil).Twice()

		_, err := service.Upload(ctx, uploader, uploadParams("memo.doc", "application/msword", "doc"))
		require.NoError(t, err)
		_, err = service.Upload(ctx, uploader, uploadParams("stock.xls", "application/vnd.ms-excel", "xls"))
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()

		_, err := service.Upload(ctx, uploader, uploadParams("run.exe", "application/octet-stream", "MZ"))
		var vErr *types.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "file", vErr.Field)
		assert.Empty(t, storedFiles(t, memFs))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("mime mismatch", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()

		_, err := service.Upload(ctx, uploader, uploadParams("photo.pdf", "image/png", "png"))
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Empty(t, storedFiles(t, memFs))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid category", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		params := uploadParams("stnk.pdf", "application/pdf", "%PDF")
		params.Category = "lainnya"

		_, err := service.Upload(ctx, uploader, params)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Empty(t, storedFiles(t, memFs))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("declared size too large", func(t *testing.T) {
		service, _, memFs := setupArchiveServiceTest()
		params := uploadParams("big.pdf", "application/pdf", "x")
		params.Size = 4096

		_, err := service.Upload(ctx, uploader, params)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Empty(t, storedFiles(t, memFs))
	})

	t.Run("streamed size too large", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		params := uploadParams("big.pdf", "application/pdf", strings.Repeat("x", 2048))
		params.Size = 0

		_, err := service.Upload(ctx, uploader, params)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Empty(t, storedFiles(t, memFs))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert failure removes the file", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		insertErr := errors.New("insert failed")
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(uuid.Nil, insertErr).Once()

		_, err := service.Upload(ctx, uploader, uploadParams("stnk.pdf", "application/pdf", "%PDF"))
		assert.ErrorIs(t, err, insertErr)
		assert.Empty(t, storedFiles(t, memFs))
	})

	t.Run("insert failure with failed cleanup returns the insert error", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		service.files = stubbornStore{FileStore: NewAferoStore(memFs)}
		insertErr := errors.New("insert failed")
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(uuid.Nil, insertErr).Once()

		_, err := service.Upload(ctx, uploader, uploadParams("stnk.pdf", "application/pdf", "%PDF"))
		assert.ErrorIs(t, err, insertErr)
		assert.Len(t, storedFiles(t, memFs), 1)
	})
}

func TestArchiveServiceImpl_Update(t *testing.T) {
	ctx := context.Background()
	owner := types.Identity{ID: uuid.New(), Role: types.RoleUser}
	archive := &types.Archive{ID: uuid.New(), UploaderID: owner.ID, Filename: "1-a.pdf"}
	params := types.UpdateArchiveParams{Title: "New", Description: "Desc", Category: types.CategoryStaf}

	t.Run("owner", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return fixed }
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()
		mockRepo.On("Update", mock.Anything, archive.ID, params, fixed).Return(nil).Once()

		require.NoError(t, service.Update(ctx, owner, archive.ID, params))
		mockRepo.AssertExpectations(t)
	})

	t.Run("admin", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		admin := types.Identity{ID: uuid.New(), Role: types.RoleAdmin}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()
		mockRepo.On("Update", mock.Anything, archive.ID, params, mock.Anything).Return(nil).Once()

		require.NoError(t, service.Update(ctx, admin, archive.ID, params))
		mockRepo.AssertExpectations(t)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		other := types.Identity{ID: uuid.New(), Role: types.RoleUser}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()

		err := service.Update(ctx, other, archive.ID, params)
		assert.ErrorIs(t, err, types.ErrForbidden)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing archive", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(nil, types.ErrNotFound).Once()

		err := service.Update(ctx, owner, archive.ID, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("missing title", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()

		err := service.Update(ctx, owner, archive.ID, types.UpdateArchiveParams{Description: "d", Category: types.CategoryStaf})
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestArchiveServiceImpl_Delete(t *testing.T) {
	ctx := context.Background()
	owner := types.Identity{ID: uuid.New(), Role: types.RoleUser}

	t.Run("removes file and row", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		require.NoError(t, afero.WriteFile(memFs, "1-a.pdf", []byte("x"), 0o644))
		archive := &types.Archive{ID: uuid.New(), UploaderID: owner.ID, Filename: "1-a.pdf"}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()
		mockRepo.On("Delete", mock.Anything, archive.ID).Return(nil).Once()

		require.NoError(t, service.Delete(ctx, owner, archive.ID))
		assert.Empty(t, storedFiles(t, memFs))
		mockRepo.AssertExpectations(t)
	})

	t.Run("file already gone", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		archive := &types.Archive{ID: uuid.New(), UploaderID: owner.ID, Filename: "1-gone.pdf"}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()
		mockRepo.On("Delete", mock.Anything, archive.ID).Return(nil).Once()

		require.NoError(t, service.Delete(ctx, owner, archive.ID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("other user is forbidden and nothing is removed", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		require.NoError(t, afero.WriteFile(memFs, "1-a.pdf", []byte("x"), 0o644))
		archive := &types.Archive{ID: uuid.New(), UploaderID: owner.ID, Filename: "1-a.pdf"}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()

		err := service.Delete(ctx, types.Identity{ID: uuid.New(), Role: types.RoleUser}, archive.ID)
		assert.ErrorIs(t, err, types.ErrForbidden)
		assert.Len(t, storedFiles(t, memFs), 1)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestArchiveServiceImpl_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		service, mockRepo, memFs := setupArchiveServiceTest()
		require.NoError(t, afero.WriteFile(memFs, "1-a.pdf", []byte("%PDF"), 0o644))
		archive := &types.Archive{ID: uuid.New(), Filename: "1-a.pdf", OriginalFilename: "stnk.pdf"}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()

		dl, err := service.Download(ctx, archive.ID)
		require.NoError(t, err)
		defer dl.Content.Close()
		content, err := io.ReadAll(dl.Content)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(content))
		assert.Equal(t, archive, dl.Archive)
	})

	t.Run("file missing", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		archive := &types.Archive{ID: uuid.New(), Filename: "1-gone.pdf"}
		mockRepo.On("GetByID", mock.Anything, archive.ID).Return(archive, nil).Once()

		_, err := service.Download(ctx, archive.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("row missing", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		id := uuid.New()
		mockRepo.On("GetByID", mock.Anything, id).Return(nil, types.ErrNotFound).Once()

		_, err := service.Download(ctx, id)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestArchiveServiceImpl_List(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter through", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		filter := types.ArchiveFilter{Category: types.CategoryInventaris, Search: "laptop"}
		want := []types.Archive{{ID: uuid.New(), Category: types.CategoryInventaris}}
		mockRepo.On("List", mock.Anything, filter).Return(want, nil).Once()

		got, err := service.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown category", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()

		_, err := service.List(ctx, types.ArchiveFilter{Category: "lainnya"})
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("recent defaults to ten", func(t *testing.T) {
		service, mockRepo, _ := setupArchiveServiceTest()
		mockRepo.On("Recent", mock.Anything, DefaultRecentLimit).Return([]types.Archive{}, nil).Once()

		_, err := service.Recent(ctx, 0)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}
