package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/bitfantasy/dealflow/internal/crm/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiFixture struct {
	db        *gorm.DB
	router    *gin.Engine
	associate *entity.User
	analyst   *entity.User
	company   *entity.Company
	sourcing  *entity.Stage
	loi       *entity.Stage
}

func newAPIFixture(t *testing.T) *apiFixture {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	dealSvc := service.NewDealService(repos.Deal, repos.Stage, repos.Company, repos.User)
	stageSvc := service.NewStageService(repos.Stage)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	dealHandler := NewDealHandler(dealSvc)
	stageHandler := NewStageHandler(stageSvc)

	deals := api.Group("/deals")
	deals.GET("", dealHandler.List)
	deals.POST("", dealHandler.Create)
	deals.GET("/kanban", dealHandler.Kanban)
	deals.GET("/:id", dealHandler.Get)
	deals.PATCH("/:id", dealHandler.Update)
	deals.PATCH("/:id/move_stage", dealHandler.MoveStage)

	stages := api.Group("/stages")
	stages.DELETE("/:id", stageHandler.Delete)

	return &apiFixture{
		db:        db,
		router:    router,
		associate: testutil.SeedUser(t, db, "associate@test.local", entity.RoleAssociate),
		analyst:   testutil.SeedUser(t, db, "analyst@test.local", entity.RoleAnalyst),
		company:   testutil.SeedCompany(t, db, "Acme", "AC1000"),
		sourcing:  testutil.SeedStage(t, db, "Sourcing", 1, 0.10),
		loi:       testutil.SeedStage(t, db, "LOI", 3, 0.50),
	}
}

func TestDealAPIRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/deals", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDealAPICreate(t *testing.T) {
	f := newAPIFixture(t)
	token := testutil.TokenFor(f.associate)

	t.Run("creates with stage default probability", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/deals", map[string]interface{}{
			"title":      "Project Alpha",
			"company_id": f.company.ID,
			"stage_id":   f.loi.ID,
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := testutil.ParseResponse(w)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "Project Alpha", data["title"])
		assert.Equal(t, 0.50, data["probability"])
		assert.Equal(t, f.associate.ID, data["owner_id"])
	})

	t.Run("rejects unknown company", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/deals", map[string]interface{}{
			"title":      "Bad",
			"company_id": "missing",
			"stage_id":   f.loi.ID,
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("analyst gets forbidden", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/deals", map[string]interface{}{
			"title":      "Nope",
			"company_id": f.company.ID,
			"stage_id":   f.loi.ID,
		}, testutil.TokenFor(f.analyst))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDealAPIMoveStage(t *testing.T) {
	f := newAPIFixture(t)
	token := testutil.TokenFor(f.associate)
	deal := testutil.SeedDeal(t, f.db, "Project Alpha", f.company, f.associate, f.sourcing)

	t.Run("missing stage_id", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPatch,
			fmt.Sprintf("/api/v1/deals/%s/move_stage", deal.ID),
			map[string]interface{}{}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown stage", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPatch,
			fmt.Sprintf("/api/v1/deals/%s/move_stage", deal.ID),
			map[string]interface{}{"stage_id": "missing"}, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("moves and resets probability", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodPatch,
			fmt.Sprintf("/api/v1/deals/%s/move_stage", deal.ID),
			map[string]interface{}{"stage_id": f.loi.ID, "update_probability": true}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := testutil.ParseResponse(w)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, f.loi.ID, data["stage_id"])
		assert.Equal(t, 0.50, data["probability"])
	})
}

func TestDealAPIVisibility(t *testing.T) {
	f := newAPIFixture(t)
	own := testutil.SeedDeal(t, f.db, "Mine", f.company, f.analyst, f.sourcing)
	other := testutil.SeedDeal(t, f.db, "Not Mine", f.company, f.associate, f.sourcing)

	token := testutil.TokenFor(f.analyst)

	t.Run("list is scoped", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/deals", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		resp := testutil.ParseResponse(w)
		data := resp["data"].(map[string]interface{})
		items := data["items"].([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, own.ID, items[0].(map[string]interface{})["id"])
	})

	t.Run("foreign deal reads as not found", func(t *testing.T) {
		w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/deals/"+other.ID, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStageAPIDeleteConflict(t *testing.T) {
	f := newAPIFixture(t)
	admin := testutil.SeedUser(t, f.db, "admin@test.local", entity.RoleAdmin)
	testutil.SeedDeal(t, f.db, "Project Alpha", f.company, f.associate, f.sourcing)

	w := testutil.DoRequest(f.router, http.MethodDelete, "/api/v1/stages/"+f.sourcing.ID, nil, testutil.TokenFor(admin))
	assert.Equal(t, http.StatusConflict, w.Code)

	resp := testutil.ParseResponse(w)
	assert.Equal(t, float64(40900), resp["code"])
}

func TestDealAPIKanban(t *testing.T) {
	f := newAPIFixture(t)
	testutil.SeedDeal(t, f.db, "Project Alpha", f.company, f.associate, f.loi)

	w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/deals/kanban", nil, testutil.TokenFor(f.associate))
	require.Equal(t, http.StatusOK, w.Code)

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	columns := data["columns"].([]interface{})
	require.Len(t, columns, 2)

	first := columns[0].(map[string]interface{})
	assert.Equal(t, float64(0), first["count"])
	second := columns[1].(map[string]interface{})
	assert.Equal(t, float64(1), second["count"])
}
