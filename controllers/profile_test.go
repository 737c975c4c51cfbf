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

func TestProfileMe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)

	req := test.NewJSONAuthRequest("GET", "/profile/me", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.UserInfoOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, user.ID, resp.Id)
	assert.Equal(t, "OurName", resp.Name)
	assert.Equal(t, "My Closet", resp.CompanyName)
	assert.Equal(t, user.Email, resp.Email)
}

func TestProfileMembers(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)

	req := test.NewJSONAuthRequest("GET", "/profile/members", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp []models.MemberInfoOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, 1, len(resp))
	assert.Equal(t, models.OWNER, resp[0].Role)
	assert.Equal(t, true, resp[0].Active)
	assert.Equal(t, user.ID, resp[0].UserInfo.Id)
}
