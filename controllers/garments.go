package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"armariapi/models"
	"armariapi/outfit"
	"armariapi/services"
	"armariapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const freePlanGarmentLimit = 10

type GarmentCreatedResponse struct {
	Garment       models.GarmentOut `json:"garment"`
	FileUploadUrl string            `json:"file_upload_url"`
}

type GarmentsController struct {
	Google      services.GoogleServiceProvider
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
}

func (controller *GarmentsController) Routes(g *echo.Group) {
	g.POST("/create", controller.CreateGarment)
	g.GET("/list", controller.ListGarments)
	g.PATCH("/:garmentId", controller.UpdateGarment)
	g.DELETE("/:garmentId", controller.DeleteGarment)
}

func (controller *GarmentsController) CreateGarment(c echo.Context) error {
	var req models.GarmentCreateIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	if req.FileName == nil || *req.FileName == "" {
		sentry.CaptureException(fmt.Errorf("Image was not provided when creating garment %s, user %v", req.Name, user.ID))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Sorry, it seems image was not provided, please try again"})
	}
	if !services.IsAllowedImageFile(*req.FileName) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Only photo uploads are supported for garments"})
	}
	company := user.Memberships[0].Company
	if string(company.Subscription) == "free" {
		var totalGarmentCount int64
		if err := db.Model(&models.Garment{}).Where("company_id = ?", company.ID).Count(&totalGarmentCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get garment data"})
		}
		fmt.Printf("[User %v] Free plan, garment count: %v", user.ID, totalGarmentCount)
		if totalGarmentCount >= freePlanGarmentLimit {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the free limit of total %v garments, please subscribe", freePlanGarmentLimit)})
		}
	}

	if company.EnforcedDailyGarmentLimit != nil {
		var dailyGarmentCount int64
		today := time.Now().UTC().Format("2006-01-02")
		if err := db.Model(&models.Garment{}).Where("company_id = ? AND DATE(created_at) = ?", company.ID, today).Count(&dailyGarmentCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get garment data"})
		}
		fmt.Printf("[User %v] Enforced daily limit, garment count: %v", user.ID, dailyGarmentCount)
		if dailyGarmentCount >= int64(*company.EnforcedDailyGarmentLimit) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the limit of %v daily garments. Please wait for the next day.", *company.EnforcedDailyGarmentLimit)})
		}
	}
	garment := models.Garment{
		Name:             req.Name,
		OwnerID:          user.ID,
		CompanyID:        user.Memberships[0].CompanyID,
		Status:           "temporary",
		ImageStatus:      "uploaded",
		ProcessingStatus: "classifying",
	}
	var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
	safeFileName := fmt.Sprintf("garments/%s", *req.FileName)

	uploadUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
	garment.ImageURL = &safeFileName
	if presignErr != nil {
		log.Printf("Unable to presign generate for %s!, %s", garment.Name, presignErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Error while creating garment with attachment",
		})
	}
	if err := db.Create(&garment).Error; err != nil {
		sentry.CaptureException(err)
		return err
	}
	task, err := tasks.NewGarmentClassifyTask(garment.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process garment, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.ProcessIn(5*time.Second), asynq.Queue("generate"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process garment, please try again"})
	}
	fmt.Println("[Queue] Classify garment task submitted, Garment ID: ", garment.ID, " Task ID: ", info.ID)

	response := GarmentCreatedResponse{
		Garment:       garmentOut(garment, nil),
		FileUploadUrl: uploadUrl,
	}

	return c.JSON(http.StatusCreated, response)
}

func garmentOut(g models.Garment, imageUrl *string) models.GarmentOut {
	return models.GarmentOut{
		Id:             g.ID,
		Name:           g.Name,
		Category:       g.Category,
		Role:           string(outfit.ClassifyRole(g.Category)),
		Color:          g.Color,
		SecondaryColor: g.SecondaryColor,
		Style:          g.Style,
		Season:         g.Season,
		Pattern:        g.Pattern,
		Material:       g.Material,
		SizeOffset:     g.SizeOffset,
		Status:         g.Status,
		ImageURL:       imageUrl,
	}
}

// populatePresignedGarmentImages enriches raw garment rows with presigned
// read URLs concurrently, falling back to a direct R2 presign when the
// cache layer itself fails.
func (controller *GarmentsController) populatePresignedGarmentImages(ctx context.Context, garments []models.Garment) []models.GarmentOut {
	if len(garments) == 0 {
		return []models.GarmentOut{}
	}

	var wg sync.WaitGroup
	processed := make([]models.GarmentOut, len(garments))
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for i, garmentItem := range garments {
		wg.Add(1)
		go func(index int, item models.Garment) {
			defer wg.Done()

			var imageUrl string
			if item.ImageURL != nil && *item.ImageURL != "" {
				objectKey := *item.ImageURL

				url, err := controller.URLCache.GetReadURL(ctx, objectKey)

				if err == nil {
					imageUrl = url
				} else {
					log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)

					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("failure_type", "cache_system")
						scope.SetExtra("objectKey", objectKey)
						sentry.CaptureException(err)
					})

					fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
					if fallbackErr != nil {
						log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
						sentry.CaptureException(fallbackErr)
					} else {
						imageUrl = fallbackUrl
					}
				}
			}
			processed[index] = garmentOut(item, &imageUrl)
		}(i, garmentItem)
	}

	wg.Wait()
	return processed
}

func (controller *GarmentsController) ListGarments(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var garments []models.Garment
	if err := db.Where("owner_id = ? AND company_id = ?", user.ID, user.Memberships[0].CompanyID).Order("created_at desc").Find(&garments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garments"})
	}
	processed := controller.populatePresignedGarmentImages(c.Request().Context(), garments)

	response := models.ClosetOut{Groups: map[string][]models.GarmentOut{}}
	for _, resp := range processed {
		role := resp.Role
		if role == "" {
			role = "unknown"
		}
		response.Groups[role] = append(response.Groups[role], resp)
	}

	return c.JSON(http.StatusOK, response)
}

func (controller *GarmentsController) UpdateGarment(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var garmentId uint
	if err := echo.PathParamsBinder(c).Uint("garmentId", &garmentId).BindError(); err != nil {
		return echo.ErrBadRequest
	}

	var req models.GarmentUpdateIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var garment models.Garment
	result := db.Where("id = ? AND owner_id = ?", garmentId, user.ID).Limit(1).Find(&garment)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garment"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}

	if req.Name != nil {
		garment.Name = *req.Name
	}
	if req.Category != nil {
		garment.Category = *req.Category
	}
	if req.Color != nil {
		garment.Color = *req.Color
	}
	if req.SecondaryColor != nil {
		garment.SecondaryColor = *req.SecondaryColor
	}
	if req.Style != nil {
		garment.Style = *req.Style
	}
	if req.Season != nil {
		garment.Season = *req.Season
	}
	if req.Pattern != nil {
		garment.Pattern = *req.Pattern
	}
	if req.Material != nil {
		garment.Material = *req.Material
	}
	if req.SizeOffset != nil {
		garment.SizeOffset = *req.SizeOffset
	}
	if err := db.Save(&garment).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update garment"})
	}
	fmt.Printf("[Garment: %v] Updated by user %v \n", garment.ID, user.ID)
	return c.JSON(http.StatusOK, garmentOut(garment, nil))
}

func (controller *GarmentsController) DeleteGarment(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var garmentId uint
	if err := echo.PathParamsBinder(c).Uint("garmentId", &garmentId).BindError(); err != nil {
		return echo.ErrBadRequest
	}

	result := db.Where("id = ? AND owner_id = ?", garmentId, user.ID).Delete(&models.Garment{})
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete garment"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	fmt.Printf("[Garment: %v] Deleted by user %v \n", garmentId, user.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
