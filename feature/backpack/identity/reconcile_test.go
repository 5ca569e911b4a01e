package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"backpack-manager/feature/backpack/queries"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func reconcileStatements(t *testing.T) queries.Statements {
	s, err := queries.Build(queries.MySQL, queries.Options{
		Names: queries.Names{
			TablePlayers:   "backpack_players",
			TableBackpacks: "backpacks",
			PlayerID:       "player_id",
			Name:           "name",
			UUID:           "uuid",
			Owner:          "owner",
			Items:          "its",
			Version:        "version",
			LastUpdate:     "last_update",
		},
		UseUUIDs:       true,
		UUIDSeparators: true,
	})
	require.NoError(t, err)
	return s
}

type fakeLookup struct {
	result   map[string]string
	err      error
	gotNames []string
}

func (f *fakeLookup) UUIDs(_ context.Context, names []string) (map[string]string, error) {
	f.gotNames = names
	return f.result, f.err
}

func TestReconcileNormalizesAndResolves(t *testing.T) {
	db, mock := setupMockDB(t)
	stmts := reconcileStatements(t)
	resolver := NewResolver(ModeUUID, true, 0, time.Minute)

	// Alex has a compact id stored where the hyphenated form is configured;
	// Steve has no id at all and needs the external lookup.
	rows := sqlmock.NewRows([]string{"player_id", "name", "uuid"}).
		AddRow(2, "Alex", "a1b2c3d4a1b2c3d4a1b2c3d4a1b2c3d4").
		AddRow(1, "Steve", nil)
	mock.ExpectQuery(stmts.SelectInvalidUUIDs).WillReturnRows(rows)

	lookup := &fakeLookup{result: map[string]string{
		"steve": "00000000000000000000000000000001",
	}}

	mock.ExpectBegin()
	mock.ExpectExec(stmts.FixUUID).
		WithArgs("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stmts.FixUUID).
		WithArgs("00000000-0000-0000-0000-000000000001", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewReconciler(db, stmts, resolver, lookup, zap.NewNop())
	patched, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, patched)

	// Only the row without a usable id reaches the lookup, lowercased.
	assert.Equal(t, []string{"steve"}, lookup.gotNames)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileSurvivesLookupFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	stmts := reconcileStatements(t)
	resolver := NewResolver(ModeUUID, true, 0, time.Minute)

	rows := sqlmock.NewRows([]string{"player_id", "name", "uuid"}).
		AddRow(2, "Alex", "a1b2c3d4a1b2c3d4a1b2c3d4a1b2c3d4").
		AddRow(1, "Steve", nil)
	mock.ExpectQuery(stmts.SelectInvalidUUIDs).WillReturnRows(rows)

	// The malformed row is still normalized; Steve waits for next startup.
	mock.ExpectBegin()
	mock.ExpectExec(stmts.FixUUID).
		WithArgs("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lookup := &fakeLookup{err: errors.New("service unavailable")}
	r := NewReconciler(db, stmts, resolver, lookup, zap.NewNop())
	patched, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, patched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileNothingToDo(t *testing.T) {
	db, mock := setupMockDB(t)
	stmts := reconcileStatements(t)
	resolver := NewResolver(ModeUUID, true, 0, time.Minute)

	mock.ExpectQuery(stmts.SelectInvalidUUIDs).
		WillReturnRows(sqlmock.NewRows([]string{"player_id", "name", "uuid"}))

	r := NewReconciler(db, stmts, resolver, &fakeLookup{}, zap.NewNop())
	patched, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, patched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
