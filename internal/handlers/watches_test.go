package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mccullochjewellers/storefront/internal/models"
)

func (env *testEnv) seedWatchBrand(name, slug string) *models.WatchBrand {
	env.T.Helper()
	brand := models.WatchBrand{Name: name, Slug: slug, IsActive: true}
	require.NoError(env.T, env.DB.Create(&brand).Error)
	return &brand
}

func (env *testEnv) seedWatch(brand *models.WatchBrand, w models.Watch) *models.Watch {
	env.T.Helper()
	w.BrandID = brand.ID
	w.IsActive = true
	if w.Currency == "" {
		w.Currency = "AUD"
	}
	require.NoError(env.T, env.DB.Create(&w).Error)
	return &w
}

func TestCreateBrand(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/watches/brands", map[string]any{
		"name":         "Longines",
		"slug":         "longines",
		"country":      "Switzerland",
		"founded_year": 1832,
	})
	require.NoError(t, env.Watches.CreateBrand(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var brand models.WatchBrand
	require.NoError(t, env.DB.Where("slug = ?", "longines").First(&brand).Error)
	require.NotEqual(t, uuid.Nil, brand.ID)
	require.True(t, brand.IsActive)
}

func TestCreateBrandSlugConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedWatchBrand("Longines", "longines")

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/watches/brands", map[string]any{
		"name": "Another",
		"slug": "longines",
	})
	env.requireHTTPError(env.Watches.CreateBrand(c), http.StatusConflict)
}

func TestGetBrandsOrdered(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.DB.Create(&models.WatchBrand{Name: "Tissot", Slug: "tissot", IsActive: true, SortOrder: 2}).Error)
	require.NoError(t, env.DB.Create(&models.WatchBrand{Name: "Longines", Slug: "longines", IsActive: true, SortOrder: 1}).Error)
	require.NoError(t, env.DB.Create(&models.WatchBrand{Name: "Dormant", Slug: "dormant", IsActive: false}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/watches/brands", nil)
	require.NoError(t, env.Watches.GetBrands(c))

	resp := decodeEnvelope(t, rec)
	require.Equal(t, float64(2), resp["count"])
	items := resp["data"].([]any)
	require.Equal(t, "longines", items[0].(map[string]any)["slug"])
	require.Equal(t, "tissot", items[1].(map[string]any)["slug"])
}

func TestUpdateBrand(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/watches/brands/"+brand.ID.String(), map[string]any{
		"name":    "Longines",
		"slug":    "longines",
		"country": "Switzerland",
	})
	c.SetParamNames("id")
	c.SetParamValues(brand.ID.String())
	require.NoError(t, env.Watches.UpdateBrand(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.WatchBrand
	require.NoError(t, env.DB.First(&updated, "id = ?", brand.ID).Error)
	require.Equal(t, "Switzerland", updated.Country)
}

func TestUpdateBrandInvalidID(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/watches/brands/not-a-uuid", map[string]any{
		"name": "x", "slug": "x",
	})
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	env.requireHTTPError(env.Watches.UpdateBrand(c), http.StatusBadRequest)
}

func TestCreateCollection(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/watches/collections", map[string]any{
		"brand_id":    brand.ID.String(),
		"name":        "HydroConquest",
		"slug":        "hydroconquest",
		"gender":      "mens",
		"is_featured": true,
	})
	require.NoError(t, env.Watches.CreateCollection(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var collection models.WatchCollection
	require.NoError(t, env.DB.Where("slug = ?", "hydroconquest").First(&collection).Error)
	require.Equal(t, brand.ID, collection.BrandID)
	require.True(t, collection.IsFeatured)
}

func TestCreateCollectionUnknownBrand(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/watches/collections", map[string]any{
		"brand_id": uuid.NewString(),
		"name":     "Orphan",
		"slug":     "orphan",
	})
	env.requireHTTPError(env.Watches.CreateCollection(c), http.StatusNotFound)
}

func TestGetCollectionsByBrand(t *testing.T) {
	env := newTestEnv(t)
	longines := env.seedWatchBrand("Longines", "longines")
	tissot := env.seedWatchBrand("Tissot", "tissot")

	require.NoError(t, env.DB.Create(&models.WatchCollection{
		BrandID: longines.ID, Name: "HydroConquest", Slug: "hydroconquest", IsActive: true,
	}).Error)
	require.NoError(t, env.DB.Create(&models.WatchCollection{
		BrandID: tissot.ID, Name: "Seastar", Slug: "seastar", IsActive: true,
	}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/watches/brands/"+longines.ID.String()+"/collections", nil)
	c.SetParamNames("brandID")
	c.SetParamValues(longines.ID.String())
	require.NoError(t, env.Watches.GetCollectionsByBrand(c))

	resp := decodeEnvelope(t, rec)
	require.Equal(t, float64(1), resp["count"])
	require.Equal(t, "hydroconquest", resp["data"].([]any)[0].(map[string]any)["slug"])
}

func TestGetFeaturedCollections(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")

	require.NoError(t, env.DB.Create(&models.WatchCollection{
		BrandID: brand.ID, Name: "HydroConquest", Slug: "hydroconquest", IsActive: true, IsFeatured: true,
	}).Error)
	require.NoError(t, env.DB.Create(&models.WatchCollection{
		BrandID: brand.ID, Name: "Spirit", Slug: "spirit", IsActive: true,
	}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/watches/featured-collections", nil)
	require.NoError(t, env.Watches.GetFeaturedCollections(c))

	resp := decodeEnvelope(t, rec)
	require.Equal(t, float64(1), resp["count"])
}

func TestGetWatchesFilters(t *testing.T) {
	env := newTestEnv(t)
	longines := env.seedWatchBrand("Longines", "longines")
	tissot := env.seedWatchBrand("Tissot", "tissot")

	env.seedWatch(longines, models.Watch{
		Name: "HydroConquest 41", Slug: "hydroconquest-41", Price: 2850,
		Gender: "mens", Style: "dive", IsFeatured: true,
	})
	env.seedWatch(longines, models.Watch{
		Name: "DolceVita", Slug: "dolcevita", Price: 2400, Gender: "ladies", Style: "dress",
	})
	env.seedWatch(tissot, models.Watch{
		Name: "Seastar 1000", Slug: "seastar-1000", Price: 1050, Gender: "mens", Style: "dive",
	})

	listSlugs := func(query string) []string {
		rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/watches"+query, nil)
		require.NoError(t, env.Watches.GetWatches(c))
		resp := decodeEnvelope(t, rec)
		items := resp["data"].([]any)
		slugs := make([]string, 0, len(items))
		for _, it := range items {
			slugs = append(slugs, it.(map[string]any)["slug"].(string))
		}
		return slugs
	}

	require.ElementsMatch(t, []string{"hydroconquest-41", "dolcevita"}, listSlugs("?brand=longines"))
	require.ElementsMatch(t, []string{"dolcevita"}, listSlugs("?gender=ladies"))
	require.ElementsMatch(t, []string{"hydroconquest-41", "seastar-1000"}, listSlugs("?style=dive"))
	require.ElementsMatch(t, []string{"hydroconquest-41", "dolcevita"}, listSlugs("?price_min=2000"))
	require.ElementsMatch(t, []string{"seastar-1000"}, listSlugs("?price_max=2000"))
	require.ElementsMatch(t, []string{"hydroconquest-41"}, listSlugs("?featured=true"))
}

func TestGetWatchBySlug(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")
	watch := env.seedWatch(brand, models.Watch{Name: "HydroConquest 41", Slug: "hydroconquest-41", Price: 2850})

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/watches/hydroconquest-41", nil)
	c.SetParamNames("slug")
	c.SetParamValues("hydroconquest-41")
	require.NoError(t, env.Watches.GetWatchBySlug(c))

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, watch.ID.String(), data["id"])
	require.Equal(t, "Longines", data["brand"].(map[string]any)["name"])
}

func TestCreateWatchDefaults(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/watches", map[string]any{
		"brand_id": brand.ID.String(),
		"name":     "Spirit Zulu Time",
		"slug":     "spirit-zulu-time",
		"price":    5300,
	})
	require.NoError(t, env.Watches.CreateWatch(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var watch models.Watch
	require.NoError(t, env.DB.Where("slug = ?", "spirit-zulu-time").First(&watch).Error)
	require.Equal(t, "AUD", watch.Currency)
	require.Equal(t, "in_stock", watch.StockStatus)
	require.NotEqual(t, uuid.Nil, watch.ID)
}

func TestUpdateWatch(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")
	watch := env.seedWatch(brand, models.Watch{Name: "Spirit", Slug: "spirit", Price: 4200})

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/watches/"+watch.ID.String(), map[string]any{
		"brand_id":     brand.ID.String(),
		"name":         "Spirit",
		"slug":         "spirit",
		"price":        4500,
		"stock_status": "sold_out",
	})
	c.SetParamNames("id")
	c.SetParamValues(watch.ID.String())
	require.NoError(t, env.Watches.UpdateWatch(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Watch
	require.NoError(t, env.DB.First(&updated, "id = ?", watch.ID).Error)
	require.Equal(t, 4500.0, updated.Price)
	require.Equal(t, "sold_out", updated.StockStatus)
}

func TestDeleteWatch(t *testing.T) {
	env := newTestEnv(t)
	brand := env.seedWatchBrand("Longines", "longines")
	watch := env.seedWatch(brand, models.Watch{Name: "Spirit", Slug: "spirit", Price: 4200})

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/admin/watches/"+watch.ID.String(), nil)
	c.SetParamNames("id")
	c.SetParamValues(watch.ID.String())
	require.NoError(t, env.Watches.DeleteWatch(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	err := env.DB.First(&models.Watch{}, "id = ?", watch.ID).Error
	require.Error(t, err)
}
