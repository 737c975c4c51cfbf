package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"armariapi/dbhelper"
	"armariapi/models"
	"armariapi/test"
)

func TestAuthGoogle(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	param := models.GoogleAuthSignIn{
		IdToken:  "fake-google-id-token",
		Platform: "ios",
	}
	req := test.NewJSONRequest("POST", "/auth/google?verify=true", param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.GoogleSignInOut
	json.Unmarshal(rec.Body.Bytes(), &resp)

	assert.Equal(t, "fake@example.com", resp.Email, resp)
	assert.Equal(t, true, resp.New, resp)
	assert.NotEmpty(t, resp.AccessToken, resp)

	var user models.UserAccount

	db.First(&user, "email = ?", "fake@example.com")

	assert.Equal(t, "fake@example.com", user.Email)
	assert.Equal(t, "STARTED_AUTH", user.Status)
	assert.Equal(t, models.PlatformIOS, user.Platform)

	param_2 := models.SignUpIn{
		IdToken:  "fake-google-id-token",
		Platform: "ios",
		ProfileIn: models.ProfileIn{
			Name:      "My Name",
			Company:   "My Closet",
			UTMSource: "organic",
		},
	}
	req_2 := test.NewJSONRequest("POST", "/auth/google", param_2)
	rec_2 := httptest.NewRecorder()

	e.ServeHTTP(rec_2, req_2)

	assert.Equal(t, http.StatusOK, rec_2.Code, rec_2.Body.String())

	db.First(&user, "email = ?", "fake@example.com")

	assert.Equal(t, "fake@example.com", user.Email)
	assert.Equal(t, "FINISHED_AUTH", user.Status)
	assert.Equal(t, models.PlatformIOS, user.Platform)
	assert.Equal(t, "My Name", user.Name)

	var company models.Company

	db.First(&company)
	assert.Equal(t, "My Closet", company.Name)
	assert.Equal(t, models.Free, company.Subscription)

	var membership models.UserCompanyRole

	db.First(&membership)
	assert.Equal(t, user.ID, membership.UserAccountID)
	assert.Equal(t, true, membership.Active)
	assert.Equal(t, models.OWNER, membership.Role)
	assert.Equal(t, company.ID, membership.CompanyID)

	req_3 := test.NewJSONRequest("POST", "/auth/google?verify=true", param)
	rec_3 := httptest.NewRecorder()

	e.ServeHTTP(rec_3, req_3)

	var resp3 echo.Map
	json.Unmarshal(rec_3.Body.Bytes(), &resp3)

	assert.Equal(t, fmt.Sprint(resp3["id"]), fmt.Sprint(user.ID), rec_3.Body.String())
	assert.Equal(t, fmt.Sprint(resp3["company_id"]), fmt.Sprint(company.ID), rec_3.Body.String())
}

func TestRefreshToken(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	userDb := test.FakeUserV2(db, nil, "name", "refresh@example.com")
	refreshToken, err := GenerateRefreshToken(fmt.Sprint(userDb.ID))
	if err != nil {
		fmt.Println("Error generating refesh", err)
	}
	param := echo.Map{
		"refresh_token": refreshToken,
	}
	req := test.NewJSONRequest("POST", "/auth/refresh-token", param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{MockUrl: "https://fakebucketurl.com/avatar"}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)
	avatarKey := "fullbodyavatars/1/avatar.png"
	user.UserFullBodyImageURL = &avatarKey
	user.FullBodyAvatarSet = true
	user.FullBodyAvatarStatus = "completed"
	db.Save(&user)

	req := test.NewJSONAuthRequest("GET", "/auth/me", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.UserMeInfoOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, user.Email, resp.Email)
	assert.Equal(t, 1, len(resp.MyCompanies))
	assert.Equal(t, "OWNER", resp.MyCompanies[0].Role)
	assert.Equal(t, true, resp.FullBodyAvatarSet)
	assert.Equal(t, "completed", resp.FullBodyAvatarStatus)
	assert.NotNil(t, resp.FullBodyAvatarUrl)
	assert.Equal(t, "https://fakebucketurl.com/avatar", *resp.FullBodyAvatarUrl)
}

func TestSettings(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)

	req := test.NewJSONAuthRequest("POST", "/auth/settings", fmt.Sprint(user.ID), models.UserSettingsIn{ReceiveNotifications: true})
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var userDb models.UserAccount
	db.First(&userDb, user.ID)
	assert.Equal(t, true, userDb.ReceiveNotifications)
}

func TestRegisterAndDeletePush(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, nil, nil, nil, test.URLCacheMock{})

	user := test.FakeUser(db, nil)

	param := models.UserPushIn{Token: "pushtoken123", Platform: "android"}
	req := test.NewJSONAuthRequest("POST", "/auth/register-push", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var count int64
	db.Model(&models.UserPushToken{}).Where("token = ? and user_account_id = ?", "pushtoken123", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	reqDel := test.NewJSONAuthRequest("POST", "/auth/delete-push", fmt.Sprint(user.ID), param)
	recDel := httptest.NewRecorder()

	e.ServeHTTP(recDel, reqDel)

	assert.Equal(t, http.StatusOK, recDel.Code, recDel.Body.String())
	db.Model(&models.UserPushToken{}).Where("token = ? and user_account_id = ?", "pushtoken123", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
