package backpack

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backpack-manager/feature/backpack/models"
)

func setupTestApp(t *testing.T) (*fiber.App, *Handler, sqlmock.Sqlmock) {
	svc, mock, _ := testService(t, testConfig())

	app := fiber.New()
	handler := NewHandler(svc, zap.NewNop())
	handler.RegisterRoutes(app)
	return app, handler, mock
}

func TestHandleGetBackpack(t *testing.T) {
	selectBackpack := "SELECT `backpacks`.`owner`,`backpacks`.`its`,`backpacks`.`version` FROM `backpacks` INNER JOIN `backpack_players` ON `backpacks`.`owner`=`backpack_players`.`player_id` WHERE `uuid`=?;"

	t.Run("Found", func(t *testing.T) {
		app, handler, mock := setupTestApp(t)
		ser := handler.service.Serializer()

		blob := ser.Serialize(models.Inventory{{Item: []byte("apple")}, {}, {}})
		mock.ExpectQuery(selectBackpack).
			WithArgs("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4").
			WillReturnRows(sqlmock.NewRows([]string{"owner", "its", "version"}).
				AddRow(7, blob, ser.Used()))

		req := httptest.NewRequest("GET", "/backpack/a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", nil)
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, float64(7), body["owner_id"])
		assert.Equal(t, float64(3), body["slots"])
		assert.Equal(t, float64(2), body["empty_slots"])
	})

	t.Run("Not Found", func(t *testing.T) {
		app, _, mock := setupTestApp(t)

		mock.ExpectQuery(selectBackpack).
			WithArgs("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4").
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest("GET", "/backpack/a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", nil)
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("Corrupt Record", func(t *testing.T) {
		app, handler, mock := setupTestApp(t)

		mock.ExpectQuery(selectBackpack).
			WithArgs("a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4").
			WillReturnRows(sqlmock.NewRows([]string{"owner", "its", "version"}).
				AddRow(7, []byte{0xde, 0xad}, handler.service.Serializer().Used()))

		req := httptest.NewRequest("GET", "/backpack/a1b2c3d4-a1b2-c3d4-a1b2-c3d4a1b2c3d4", nil)
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestHandleRewrite(t *testing.T) {
	app, handler, mock := setupTestApp(t)

	mock.ExpectQuery("SELECT `owner`,`its`,`version` FROM `backpacks` WHERE `version`<>?;").
		WithArgs(handler.service.Serializer().Used()).
		WillReturnRows(sqlmock.NewRows([]string{"owner", "its", "version"}))

	req := httptest.NewRequest("POST", "/backpack/rewrite", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, float64(0), body["scanned"])
	assert.Equal(t, float64(handler.service.Serializer().Used()), body["version"])
}

func TestHandlePurge(t *testing.T) {
	// Retention disabled: the purge is a no-op and reports zero removals.
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/backpack/purge", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, float64(0), body["removed"])
}

func TestHandleUpdateCheck(t *testing.T) {
	t.Run("No Checker Installed", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		req := httptest.NewRequest("POST", "/backpack/update-check", nil)
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, 501, resp.StatusCode)
	})

	t.Run("Checker Installed", func(t *testing.T) {
		app, handler, _ := setupTestApp(t)
		handler.SetUpdateChecker(func(ctx context.Context) UpdateResult {
			return UpdateAvailable
		})

		req := httptest.NewRequest("POST", "/backpack/update-check", nil)
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "update_available", body["result"])
	})
}
