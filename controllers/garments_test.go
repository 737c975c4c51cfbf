package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"armariapi/dbhelper"
	"armariapi/models"
	"armariapi/test"
)

func TestCreateGarmentRejectsBadFile(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID

	param := models.GarmentCreateIn{Name: "Camisa", FileName: test.NewRefString("notes.pdf")}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/garments/create", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var count int64
	db.Model(&models.Garment{}).Where("company_id = ?", companyId).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateGarmentFreeLimit(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	for i := 0; i < freePlanGarmentLimit; i++ {
		test.FakeGarment(db, user, fmt.Sprintf("Camiseta %v", i), "blanco")
	}

	param := models.GarmentCreateIn{Name: "Una mas", FileName: test.NewRefString("una-mas.jpg")}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/company/%v/garments/create", companyId), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestListGarmentsGroupedByRole(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	test.FakeGarment(db, user, "Camiseta de manga corta", "blanco")
	test.FakeGarment(db, user, "Vaquero azul", "azul")
	test.FakeGarment(db, user, "Zapatillas blancas", "blanco")

	req := test.NewJSONAuthRequest("GET", fmt.Sprintf("/company/%v/garments/list", companyId), fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.ClosetOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, 1, len(resp.Groups["top"]), rec.Body.String())
	assert.Equal(t, 1, len(resp.Groups["bottom"]), rec.Body.String())
	assert.Equal(t, 1, len(resp.Groups["shoes"]), rec.Body.String())
	assert.NotNil(t, resp.Groups["top"][0].ImageURL)
	assert.Contains(t, *resp.Groups["top"][0].ImageURL, "https://fakebucketurl.com/")
}

func TestUpdateGarment(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	garment := test.FakeGarment(db, user, "Camiseta de manga corta", "blanco")

	param := models.GarmentUpdateIn{
		Color:  test.NewRefString("negro"),
		Style:  test.NewRefString("deportivo"),
		Season: test.NewRefString("verano"),
	}
	req := test.NewJSONAuthRequest("PATCH", fmt.Sprintf("/company/%v/garments/%v", companyId, garment.ID), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var garmentDb models.Garment
	db.First(&garmentDb, garment.ID)
	assert.Equal(t, "negro", garmentDb.Color)
	assert.Equal(t, "deportivo", garmentDb.Style)
	assert.Equal(t, "verano", garmentDb.Season)
	// untouched fields survive the patch
	assert.Equal(t, "Camiseta de manga corta", garmentDb.Category)
}

func TestUpdateGarmentRejectsUnknownStyle(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	garment := test.FakeGarment(db, user, "Camiseta de manga corta", "blanco")

	param := models.GarmentUpdateIn{Style: test.NewRefString("extravagante")}
	req := test.NewJSONAuthRequest("PATCH", fmt.Sprintf("/company/%v/garments/%v", companyId, garment.ID), fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestDeleteGarment(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	companyId := user.Memberships[0].CompanyID
	garment := test.FakeGarment(db, user, "Camiseta de manga corta", "blanco")

	req := test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/company/%v/garments/%v", companyId, garment.ID), fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	db.Model(&models.Garment{}).Where("id = ?", garment.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// deleting again is a 404
	req2 := test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/company/%v/garments/%v", companyId, garment.ID), fmt.Sprint(user.ID), nil)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusNotFound, rec2.Code, rec2.Body.String())
}
