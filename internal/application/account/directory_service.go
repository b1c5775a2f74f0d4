package account

import (
	"context"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DirectoryService serves cursor-paginated listings of an app's users
type DirectoryService struct {
	userRepo account.UserRepository
	logger   *zap.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(userRepo account.UserRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// ListUsersInput contains input for one directory page
type ListUsersInput struct {
	AppID    uuid.UUID
	Filter   account.Filter
	PageSize int
	Cursor   string
}

// UserPage is one page of the user directory. NextCursor is non-empty
// exactly when the page holds users; an empty page with an empty cursor
// marks the end of the sequence.
type UserPage struct {
	Users      []UserDTO `json:"users"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ListUsers returns one page of the app's users matching the filter,
// ordered by creation time. An opaque cursor resumes iteration; cursors are
// bound to the filter they were issued under and rejected elsewhere.
// Callers walk the directory by following NextCursor until an empty page
// comes back.
func (s *DirectoryService) ListUsers(ctx context.Context, input ListUsersInput) (*UserPage, error) {
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := input.Filter.Normalized()

	var after *account.Cursor
	if input.Cursor != "" {
		decoded, err := account.DecodeCursor(input.Cursor, filter)
		if err != nil {
			return nil, err
		}
		after = &decoded
	}

	users, err := s.userRepo.List(ctx, input.AppID, filter, after, pageSize)
	if err != nil {
		s.logger.Error("Failed to list app users",
			zap.String("app_id", input.AppID.String()),
			zap.Error(err))
		return nil, err
	}

	page := &UserPage{Users: make([]UserDTO, 0, len(users))}
	for _, u := range users {
		page.Users = append(page.Users, *toUserDTO(u))
	}

	// Every non-empty page carries a resume point, even a final full one.
	// The walk terminates on the first empty page.
	if len(users) > 0 {
		last := users[len(users)-1]
		page.NextCursor = account.NewCursor(last, filter).Encode()
	}

	return page, nil
}
