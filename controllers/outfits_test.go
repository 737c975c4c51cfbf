package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armariapi/dbhelper"
	"armariapi/models"
	"armariapi/outfit"
	"armariapi/test"
)

func TestRecommendOutfits(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	test.FakeGarment(db, user, "Camisa", "blanco")
	test.FakeGarment(db, user, "Camiseta", "negro")
	test.FakeGarment(db, user, "Vaquero", "azul")
	test.FakeGarment(db, user, "Pantalón chino", "beige")
	test.FakeGarment(db, user, "Zapatilla deportiva", "blanco")

	param := models.RecommendIn{Formality: 3, MaxResults: 5}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/recommend", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.RecommendOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NotEmpty(t, resp.Outfits, rec.Body.String())
	for _, o := range resp.Outfits {
		require.NotNil(t, o.Top)
		require.NotNil(t, o.Bottom)
		assert.GreaterOrEqual(t, o.Rating, 1)
		assert.LessOrEqual(t, o.Rating, 5)
		assert.NotEmpty(t, o.Rules)
		assert.NotNil(t, o.Top.ImageURL)
		assert.Contains(t, *o.Top.ImageURL, "https://fakebucketurl.com/")
	}
	assert.Empty(t, resp.EmptyReason)
}

func TestRecommendEmptyCloset(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID

	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/recommend", companyId), fmt.Sprint(user.ID), models.RecommendIn{})
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.RecommendOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Empty(t, resp.Outfits)
	assert.NotEmpty(t, resp.EmptyReason)
}

func TestSwapTiers(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	top := test.FakeGarment(db, user, "Camisa", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero", "azul")
	good := test.FakeGarment(db, user, "Jersey", "azul marino")
	middling := test.FakeGarment(db, user, "Camiseta", "gris")
	bad := test.FakeGarment(db, user, "Sudadera", "naranja")

	param := models.SwapIn{
		OutfitGarmentIds: []uint{top.ID, bottom.ID},
		Role:             "top",
	}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/swap", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.SwapOut
	json.Unmarshal(rec.Body.Bytes(), &resp)

	require.Equal(t, 1, len(resp.Recommended), rec.Body.String())
	assert.Equal(t, good.ID, resp.Recommended[0].Garment.Id)
	require.Equal(t, 1, len(resp.Alternative), rec.Body.String())
	assert.Equal(t, middling.ID, resp.Alternative[0].Garment.Id)
	require.Equal(t, 1, len(resp.NotRecommended), rec.Body.String())
	assert.Equal(t, bad.ID, resp.NotRecommended[0].Garment.Id)
}

func TestSwapUsesColorimetry(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	top := test.FakeGarment(db, user, "Camisa", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero", "azul")
	washedOut := test.FakeGarment(db, user, "Camiseta", "gris")

	db.Create(&models.UserColorimetry{
		UserAccountID: user.ID,
		FavorColors:   pq.StringArray{"burdeos"},
		AvoidColors:   pq.StringArray{"gris"},
	})

	param := models.SwapIn{
		OutfitGarmentIds: []uint{top.ID, bottom.ID},
		Role:             "top",
	}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/swap", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.SwapOut
	json.Unmarshal(rec.Body.Bytes(), &resp)

	// neutral +10 but colorimetry -25 puts the grey tee in the bottom tier
	require.Equal(t, 1, len(resp.NotRecommended), rec.Body.String())
	assert.Equal(t, washedOut.ID, resp.NotRecommended[0].Garment.Id)
}

func TestCreateTryOnRequiresAvatar(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	top := test.FakeGarment(db, user, "Camisa", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero", "azul")

	param := models.TryOnRequestIn{TopGarmentId: top.ID, BottomGarmentId: bottom.ID}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/tryon", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestCreateTryOnReusesExistingGeneration(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	avatarKey := "fullbodyavatars/1/avatar.png"
	user.UserFullBodyImageURL = &avatarKey
	user.FullBodyAvatarSet = true
	db.Save(&user)
	db.Preload("Memberships.Company").First(&user, user.ID)

	top := test.FakeGarment(db, user, "Camisa", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero", "azul")

	existing := models.OutfitTryonGeneration{
		TopGarmentID:           top.ID,
		BottomGarmentID:        bottom.ID,
		OutfitKey:              outfit.OutfitKey(top.ID, bottom.ID, nil, nil),
		UserAccountID:          user.ID,
		CompanyID:              companyId,
		GeneratedWithAvatarURL: avatarKey,
		Status:                 "pending",
	}
	db.Create(&existing)

	param := models.TryOnRequestIn{TopGarmentId: top.ID, BottomGarmentId: bottom.ID}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/outfits/tryon", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TryOnCreatedResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, existing.ID, resp.TryOnID)
	assert.Equal(t, "pending", resp.Status)

	var count int64
	db.Model(&models.OutfitTryonGeneration{}).Where("user_account_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetTryOn(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	top := test.FakeGarment(db, user, "Camisa", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero", "azul")

	previewKey := "tryons/tryon-1.png"
	tryOn := models.OutfitTryonGeneration{
		TopGarmentID:           top.ID,
		BottomGarmentID:        bottom.ID,
		OutfitKey:              outfit.OutfitKey(top.ID, bottom.ID, nil, nil),
		UserAccountID:          user.ID,
		CompanyID:              companyId,
		GeneratedWithAvatarURL: "fullbodyavatars/1/avatar.png",
		Status:                 "completed",
		TryOnPreviewImageURL:   &previewKey,
	}
	db.Create(&tryOn)

	req := test.NewJSONAuthRequest("GET", fmt.Sprintf("/company/%v/outfits/tryon/%v", companyId, tryOn.ID), fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TryOnCreatedResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, tryOn.ID, resp.TryOnID)
	assert.Equal(t, "completed", resp.Status)
	assert.NotNil(t, resp.TryOnPreviewImageURL)
	assert.Equal(t, "https://fakebucketurl.com/tryons/tryon-1.png", *resp.TryOnPreviewImageURL)
}

func TestColorimetryRoundTrip(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID

	param := models.ColorimetryIn{
		FavorColors: []string{"azul marino", "blanco"},
		AvoidColors: []string{"naranja"},
		SeasonType:  test.NewRefString("invierno profundo"),
	}
	req := test.NewJSONAuthRequest("PUT", fmt.Sprintf("/company/%v/outfits/colorimetry", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reqGet := test.NewJSONAuthRequest("GET", fmt.Sprintf("/company/%v/outfits/colorimetry", companyId), fmt.Sprint(user.ID), nil)
	recGet := httptest.NewRecorder()

	e.ServeHTTP(recGet, reqGet)

	assert.Equal(t, http.StatusOK, recGet.Code, recGet.Body.String())
	var resp models.UserColorimetry
	json.Unmarshal(recGet.Body.Bytes(), &resp)
	assert.Equal(t, 2, len(resp.FavorColors))
	assert.Equal(t, "naranja", resp.AvoidColors[0])
	assert.Equal(t, "invierno profundo", *resp.SeasonType)
}
