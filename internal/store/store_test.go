package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powertools/internal/shared"
)

// backends runs fn against every store that needs no external service.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := OpenSQLite(":memory:")
		require.NoError(t, err)
		s := NewSQLStore(db, SQLite)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		fn(t, s)
	})
	t.Run("sqlite-file", func(t *testing.T) {
		db, err := OpenSQLite(filepath.Join(t.TempDir(), "pt.db"))
		require.NoError(t, err)
		s := NewSQLStore(db, SQLite)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		fn(t, s)
	})
}

func TestInsertAndFind(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		res, err := s.Insert(ctx, Orders, shared.Order{ToolID: "T1", Email: "a@x.com", Quantity: 2, TotalPrice: 40})
		require.NoError(t, err)
		assert.True(t, res.Acknowledged)
		assert.NotEmpty(t, res.InsertedID)

		_, err = s.Insert(ctx, Orders, shared.Order{ToolID: "T2", Email: "b@y.com", Quantity: 1, TotalPrice: 10})
		require.NoError(t, err)

		var mine []shared.Order
		require.NoError(t, s.Find(ctx, Orders, ByEmail("a@x.com"), &mine))
		require.Len(t, mine, 1)
		assert.Equal(t, res.InsertedID, mine[0].ID)
		assert.Equal(t, "T1", mine[0].ToolID)
		assert.Equal(t, 2, mine[0].Quantity)

		var all []shared.Order
		require.NoError(t, s.Find(ctx, Orders, nil, &all))
		assert.Len(t, all, 2)

		var one shared.Order
		require.NoError(t, s.FindOne(ctx, Orders, ByID(res.InsertedID), &one))
		assert.Equal(t, "a@x.com", one.Email)
	})
}

func TestInsertIgnoresCallerID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		res, err := s.Insert(ctx, Tools, shared.Tool{ID: "chosen", Name: "Drill"})
		require.NoError(t, err)
		assert.NotEqual(t, "chosen", res.InsertedID)

		err = s.FindOne(ctx, Tools, ByID("chosen"), &shared.Tool{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFindEmptyCollection(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		tools := []shared.Tool{}
		require.NoError(t, s.Find(context.Background(), Tools, nil, &tools))
		assert.NotNil(t, tools)
		assert.Empty(t, tools)
	})
}

func TestFindOneMissing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		var u shared.UserProfile
		err := s.FindOne(context.Background(), Users, ByEmail("nobody@x.com"), &u)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateSetsOnlyGivenFields(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ins, err := s.Insert(ctx, Tools, shared.Tool{Name: "Saw", Price: 12.5, Available: 10})
		require.NoError(t, err)

		res, err := s.Update(ctx, Tools, ByID(ins.InsertedID), map[string]any{"available": 7}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)
		assert.Equal(t, int64(1), res.ModifiedCount)

		var tool shared.Tool
		require.NoError(t, s.FindOne(ctx, Tools, ByID(ins.InsertedID), &tool))
		assert.Equal(t, 7, tool.Available)
		assert.Equal(t, "Saw", tool.Name)
		assert.Equal(t, 12.5, tool.Price)

		res, err = s.Update(ctx, Tools, ByID(ins.InsertedID), map[string]any{"available": 7}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)
		assert.Equal(t, int64(0), res.ModifiedCount)
	})
}

func TestUpdateWithoutUpsertMissesQuietly(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		res, err := s.Update(context.Background(), Users, ByEmail("ghost@x.com"), map[string]any{"role": "admin"}, false)
		require.NoError(t, err)
		assert.Equal(t, shared.UpdateResult{Acknowledged: true}, res)

		var users []shared.UserProfile
		require.NoError(t, s.Find(context.Background(), Users, nil, &users))
		assert.Empty(t, users)
	})
}

func TestUpsertCreatesFromFilter(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		res, err := s.Update(ctx, Users, ByEmail("a@x.com"), map[string]any{"phone": "555"}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.UpsertedCount)
		assert.NotEmpty(t, res.UpsertedID)

		var u shared.UserProfile
		require.NoError(t, s.FindOne(ctx, Users, ByEmail("a@x.com"), &u))
		assert.Equal(t, res.UpsertedID, u.ID)
		assert.Equal(t, "555", u.Phone)
	})
}

func TestUpsertByIDKeepsID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		res, err := s.Update(ctx, Tools, ByID("tool-9"), map[string]any{"available": 3}, true)
		require.NoError(t, err)
		assert.Equal(t, "tool-9", res.UpsertedID)

		var tool shared.Tool
		require.NoError(t, s.FindOne(ctx, Tools, ByID("tool-9"), &tool))
		assert.Equal(t, 3, tool.Available)
	})
}

func TestDeleteFirstMatch(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ins, err := s.Insert(ctx, Orders, shared.Order{Email: "a@x.com"})
		require.NoError(t, err)

		res, err := s.Delete(ctx, Orders, ByID(ins.InsertedID))
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.DeletedCount)

		res, err = s.Delete(ctx, Orders, ByID(ins.InsertedID))
		require.NoError(t, err)
		assert.True(t, res.Acknowledged)
		assert.Equal(t, int64(0), res.DeletedCount)
	})
}

func TestCollectionsAreIsolated(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.Insert(ctx, Reviews, shared.Review{Email: "a@x.com", Text: "great", Rating: 5})
		require.NoError(t, err)

		var suggestions []shared.Suggestion
		require.NoError(t, s.Find(ctx, Suggestions, nil, &suggestions))
		assert.Empty(t, suggestions)
	})
}

func TestConcurrentUpserts(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		const n = 20

		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				email := fmt.Sprintf("user%d@x.com", i)
				if _, err := s.Update(ctx, Users, ByEmail(email), map[string]any{"phone": "1"}, true); err != nil {
					errs <- err
				}
				if _, err := s.Update(ctx, Tools, ByID("shared"), map[string]any{"available": i}, true); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		var users []shared.UserProfile
		require.NoError(t, s.Find(ctx, Users, nil, &users))
		assert.Len(t, users, n)

		var tools []shared.Tool
		require.NoError(t, s.Find(ctx, Tools, nil, &tools))
		assert.Len(t, tools, 1)
	})
}
