package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"armariapi/dbhelper"
	"armariapi/models"
	"armariapi/test"
)

func TestGarmentClassifyTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	t.Setenv("GOOGLE_API_KEY", "fake-key")
	user := test.FakeUser(db, nil)

	garment := models.Garment{
		Name:             "New upload",
		OwnerID:          user.ID,
		CompanyID:        user.Memberships[0].CompanyID,
		Status:           "temporary",
		ImageStatus:      "uploaded",
		ProcessingStatus: "classifying",
		ImageURL:         test.NewRefString("garments/new-upload.jpg"),
	}
	db.Create(&garment)

	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(test.TinyPNG())
	}))
	defer mockServer.Close()

	fakeTask, err := NewGarmentClassifyTask(garment.ID)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleGarmentClassifyTask(context.Background(), fakeTask, db, test.VisionProcessorMock{}, awsServiceMock, nil)
	assert.NoError(t, err)

	var updated models.Garment
	err = db.Where("id = ?", garment.ID).First(&updated).Error
	assert.NoError(t, err)
	assert.Equal(t, "Camisa de manga larga", updated.Category)
	assert.Equal(t, "blanco", updated.Color)
	assert.Equal(t, "in_closet", updated.Status)
	assert.Equal(t, "completed", updated.ProcessingStatus)
	assert.Nil(t, updated.ProcessErrorMessage)
}

func TestGarmentClassifyTaskNoClothingDetected(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	t.Setenv("GOOGLE_API_KEY", "fake-key")
	user := test.FakeUser(db, nil)

	garment := models.Garment{
		Name:             "Not a garment",
		OwnerID:          user.ID,
		CompanyID:        user.Memberships[0].CompanyID,
		Status:           "temporary",
		ImageStatus:      "uploaded",
		ProcessingStatus: "classifying",
		ImageURL:         test.NewRefString("garments/not-a-garment.jpg"),
	}
	db.Create(&garment)

	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(test.TinyPNG())
	}))
	defer mockServer.Close()

	fakeTask, err := NewGarmentClassifyTask(garment.ID)
	assert.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	visionMock := test.VisionProcessorMock{ClassifyJSON: `{"category":"","color":"","style":"","season":""}`}
	err = HandleGarmentClassifyTask(context.Background(), fakeTask, db, visionMock, awsServiceMock, nil)
	assert.NoError(t, err)

	var updated models.Garment
	err = db.Where("id = ?", garment.ID).First(&updated).Error
	assert.NoError(t, err)
	assert.Equal(t, "failed", updated.ProcessingStatus)
	assert.Equal(t, 1, updated.ProcessRetryTimes)
	assert.NotNil(t, updated.ProcessErrorMessage)
}

func TestTryOnGenerationTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db, nil)
	user.UserFullBodyImageURL = test.NewRefString("avatars/avatar-1.png")
	user.FullBodyAvatarSet = true
	db.Save(&user)

	top := test.FakeGarment(db, user, "Camisa blanca", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero azul", "azul")

	tryOn := models.OutfitTryonGeneration{
		Status:          "pending",
		UserAccountID:   user.ID,
		CompanyID:       user.Memberships[0].CompanyID,
		TopGarmentID:    top.ID,
		BottomGarmentID: bottom.ID,
	}
	tryOn.OutfitKey = tryOn.Key()
	db.Create(&tryOn)

	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(test.TinyPNG())
	}))
	defer mockServer.Close()

	fakeTask, err := NewTryOnGenerationTask(tryOn.ID)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleTryOnGenerationTask(context.Background(), fakeTask, db, test.VisionProcessorMock{}, awsServiceMock, nil)
	assert.NoError(t, err)

	var updated models.OutfitTryonGeneration
	err = db.Where("id = ?", tryOn.ID).First(&updated).Error
	assert.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	assert.NotNil(t, updated.TryOnPreviewImageURL)
	assert.NotNil(t, updated.Duration)
	assert.Nil(t, updated.GenerationErrorMessage)
}

func TestTryOnGenerationTaskWithoutAvatar(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db, nil)

	top := test.FakeGarment(db, user, "Camisa blanca", "blanco")
	bottom := test.FakeGarment(db, user, "Vaquero azul", "azul")

	tryOn := models.OutfitTryonGeneration{
		Status:          "pending",
		UserAccountID:   user.ID,
		CompanyID:       user.Memberships[0].CompanyID,
		TopGarmentID:    top.ID,
		BottomGarmentID: bottom.ID,
	}
	tryOn.OutfitKey = tryOn.Key()
	db.Create(&tryOn)

	fakeTask, err := NewTryOnGenerationTask(tryOn.ID)
	assert.NoError(t, err)

	err = HandleTryOnGenerationTask(context.Background(), fakeTask, db, test.VisionProcessorMock{}, &test.AWSProviderMock{}, nil)
	assert.NoError(t, err)

	var updated models.OutfitTryonGeneration
	err = db.Where("id = ?", tryOn.ID).First(&updated).Error
	assert.NoError(t, err)
	assert.Equal(t, "failed", updated.Status)
	assert.NotNil(t, updated.GenerationErrorMessage)
}
