package watch

import (
	"context"
	"fmt"
	"testing"

	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) *Service {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Trading{
		DefaultFavorites: []string{"AAPL", "MSFT"},
		DefaultWatchlist: []string{"NFLX", "AMD", "IBM"},
	}
	return NewService(db, cfg, zap.NewNop())
}

func TestGet_SeedsDefaults(t *testing.T) {
	s := setupService(t)

	list, err := s.Get(context.Background(), "acct-1", CategoryFavorites)

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, list)

	// Second read comes from the stored row, not the defaults.
	again, err := s.Get(context.Background(), "acct-1", CategoryFavorites)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestGet_CategoriesAreIndependent(t *testing.T) {
	s := setupService(t)

	favorites, err := s.Get(context.Background(), "acct-1", CategoryFavorites)
	require.NoError(t, err)
	watchlist, err := s.Get(context.Background(), "acct-1", CategoryWatchlist)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, favorites)
	assert.Equal(t, []string{"NFLX", "AMD", "IBM"}, watchlist)
}

func TestGet_InvalidCategory(t *testing.T) {
	s := setupService(t)

	_, err := s.Get(context.Background(), "acct-1", "shortlist")

	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestRemove(t *testing.T) {
	s := setupService(t)

	list, err := s.Remove(context.Background(), "acct-1", CategoryWatchlist, "amd")

	require.NoError(t, err)
	assert.Equal(t, []string{"NFLX", "IBM"}, list)

	// The removal persisted.
	again, err := s.Get(context.Background(), "acct-1", CategoryWatchlist)
	require.NoError(t, err)
	assert.Equal(t, []string{"NFLX", "IBM"}, again)
}

func TestRemove_AbsentSymbolIsNoop(t *testing.T) {
	s := setupService(t)

	list, err := s.Remove(context.Background(), "acct-1", CategoryFavorites, "TSLA")

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, list)
}
