package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
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
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const freePlanTryOnLimit = 3

type TryOnCreatedResponse struct {
	TryOnID              uint    `json:"try_on_id"`
	Status               string  `json:"status"`
	TryOnPreviewImageURL *string `json:"try_on_preview_image_url,omitempty"`
}

type OutfitsController struct {
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
}

func (controller *OutfitsController) Routes(g *echo.Group) {
	g.POST("/recommend", controller.Recommend)
	g.POST("/swap", controller.Swap)
	g.POST("/tryon", controller.CreateTryOn)
	g.GET("/tryon/:tryOnId", controller.GetTryOn)
	g.GET("/colorimetry", controller.GetColorimetry)
	g.PUT("/colorimetry", controller.SetColorimetry)
}

// presignGarmentViews builds presigned GarmentOut views keyed by garment id,
// through the URL cache with a direct R2 fallback when the cache layer fails.
func (controller *OutfitsController) presignGarmentViews(ctx context.Context, garments []models.Garment) map[uint]models.GarmentOut {
	views := make(map[uint]models.GarmentOut, len(garments))
	if len(garments) == 0 {
		return views
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for _, garmentItem := range garments {
		wg.Add(1)
		go func(item models.Garment) {
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
			mu.Lock()
			views[item.ID] = garmentOut(item, &imageUrl)
			mu.Unlock()
		}(garmentItem)
	}
	wg.Wait()
	return views
}

func loadCloset(db *gorm.DB, user models.UserAccount) ([]models.Garment, error) {
	var garments []models.Garment
	err := db.Where(
		"owner_id = ? AND company_id = ? AND status = ? AND processing_status = ?",
		user.ID, user.Memberships[0].CompanyID, "in_closet", "completed",
	).Find(&garments).Error
	return garments, err
}

func loadColorimetry(db *gorm.DB, userID uint) *outfit.ColorimetryProfile {
	var colorimetry models.UserColorimetry
	r := db.Where("user_account_id = ?", userID).Limit(1).Find(&colorimetry)
	if r.Error != nil || r.RowsAffected == 0 {
		return nil
	}
	return colorimetry.ToEngine()
}

func (controller *OutfitsController) Recommend(c echo.Context) error {
	var req models.RecommendIn
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

	garments, err := loadCloset(db, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garments"})
	}

	closet := make([]outfit.Garment, 0, len(garments))
	for _, g := range garments {
		closet = append(closet, g.ToEngine())
	}

	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = 3
	}
	cfg := outfit.DefaultConfig()
	cfg.TreatMissingColorAsNeutral = true
	generator := outfit.NewGenerator(cfg, nil)
	candidates, diag := generator.Generate(closet, outfit.Constraints{
		TopLength:      outfit.LengthClass(req.TopLength),
		BottomLength:   outfit.LengthClass(req.BottomLength),
		Formality:      req.Formality,
		FavoriteColors: req.FavoriteColors,
		AvoidColors:    req.AvoidColors,
		EventType:      req.EventType,
		Colorimetry:    loadColorimetry(db, user.ID),
	}, maxResults)
	fmt.Printf("[User %v] Recommend: %v outfits from %v garments \n", user.ID, len(candidates), len(garments))

	views := controller.presignGarmentViews(c.Request().Context(), garments)
	pick := func(g *outfit.Garment) *models.GarmentOut {
		if g == nil {
			return nil
		}
		if view, ok := views[g.ID]; ok {
			return &view
		}
		return nil
	}

	outfits := make([]models.OutfitOut, 0, len(candidates))
	for _, cand := range candidates {
		outfits = append(outfits, models.OutfitOut{
			Top:       pick(cand.Top),
			Bottom:    pick(cand.Bottom),
			Shoes:     pick(cand.Shoes),
			Outerwear: pick(cand.Outerwear),
			Score:     cand.Score,
			Rating:    cand.Rating,
			Rules:     models.RuleHitsOut(cand.Trace),
		})
	}
	excluded := make([]models.ExcludedGarmentOut, 0, len(diag.Excluded))
	for _, ex := range diag.Excluded {
		excluded = append(excluded, models.ExcludedGarmentOut{Id: ex.ID, Name: ex.Name, Reason: ex.Reason})
	}

	return c.JSON(http.StatusOK, models.RecommendOut{
		Outfits:     outfits,
		Excluded:    excluded,
		EmptyReason: diag.EmptyReason,
	})
}

func (controller *OutfitsController) Swap(c echo.Context) error {
	var req models.SwapIn
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

	var outfitGarments []models.Garment
	if err := db.Where("id IN ? AND owner_id = ?", req.OutfitGarmentIds, user.ID).Find(&outfitGarments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garments"})
	}
	if len(outfitGarments) != len(req.OutfitGarmentIds) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Some outfit garments were not found"})
	}
	pieces := make([]outfit.Garment, 0, len(outfitGarments))
	inOutfit := map[uint]bool{}
	for _, g := range outfitGarments {
		pieces = append(pieces, g.ToEngine())
		inOutfit[g.ID] = true
	}

	closet, err := loadCloset(db, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garments"})
	}
	var candidates []models.Garment
	for _, g := range closet {
		if inOutfit[g.ID] {
			continue
		}
		if string(outfit.ClassifyRole(g.Category)) != req.Role {
			continue
		}
		candidates = append(candidates, g)
	}

	prefs := outfit.SwapPreferences{Colorimetry: loadColorimetry(db, user.ID)}
	views := controller.presignGarmentViews(c.Request().Context(), candidates)

	assessed := make([]models.SwapItemOut, 0, len(candidates))
	for _, cand := range candidates {
		assessment := outfit.AssessSwapItem(cand.ToEngine(), pieces, prefs)
		view, ok := views[cand.ID]
		if !ok {
			view = garmentOut(cand, nil)
		}
		assessed = append(assessed, models.SwapItemOut{
			Garment: view,
			Score:   assessment.Score,
			Tier:    string(assessment.Tier),
			Rules:   models.RuleHitsOut(assessment.Trace),
		})
	}
	sort.SliceStable(assessed, func(i, j int) bool { return assessed[i].Score > assessed[j].Score })

	out := models.SwapOut{
		Recommended:    []models.SwapItemOut{},
		Alternative:    []models.SwapItemOut{},
		NotRecommended: []models.SwapItemOut{},
	}
	for _, item := range assessed {
		switch item.Tier {
		case string(outfit.TierRecommended):
			out.Recommended = append(out.Recommended, item)
		case string(outfit.TierAlternative):
			out.Alternative = append(out.Alternative, item)
		default:
			out.NotRecommended = append(out.NotRecommended, item)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *OutfitsController) CreateTryOn(c echo.Context) error {
	var req models.TryOnRequestIn
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
	if user.UserFullBodyImageURL == nil || *user.UserFullBodyImageURL == "" {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You have to set your avatar first before generating try-on"})
	}
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	wantedIds := []uint{req.TopGarmentId, req.BottomGarmentId}
	if req.ShoesGarmentId != nil {
		wantedIds = append(wantedIds, *req.ShoesGarmentId)
	}
	if req.OuterwearGarmentId != nil {
		wantedIds = append(wantedIds, *req.OuterwearGarmentId)
	}
	var ownedCount int64
	if err := db.Model(&models.Garment{}).Where("id IN ? AND owner_id = ?", wantedIds, user.ID).Count(&ownedCount).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch garment data"})
	}
	if ownedCount != int64(len(wantedIds)) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Some outfit garments were not found"})
	}

	// repeat request for the same outfit reuses the existing row
	outfitKey := outfit.OutfitKey(req.TopGarmentId, req.BottomGarmentId, req.ShoesGarmentId, req.OuterwearGarmentId)
	var existing models.OutfitTryonGeneration
	r := db.Where("outfit_key = ? AND user_account_id = ? AND status IN ?", outfitKey, user.ID, []string{"pending", "completed"}).
		Order("created_at desc").Limit(1).Find(&existing)
	if r.Error == nil && r.RowsAffected > 0 {
		fmt.Printf("[TryOn: %v] Reusing %s generation for key %s \n", existing.ID, existing.Status, outfitKey)
		return c.JSON(http.StatusOK, controller.tryOnResponse(c.Request().Context(), existing))
	}

	company := user.Memberships[0].Company
	if string(company.Subscription) == "free" {
		var totalTryOnCount int64
		if err := db.Model(&models.OutfitTryonGeneration{}).Where("company_id = ?", company.ID).Count(&totalTryOnCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get try-on data"})
		}
		fmt.Printf("[User %v] Free plan, try-on count: %v", user.ID, totalTryOnCount)
		if totalTryOnCount >= freePlanTryOnLimit {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the free limit of total %v generations, please subscribe", freePlanTryOnLimit)})
		}
	}
	if company.EnforcedDailyTryOnLimit != nil {
		var dailyTryOnCount int64
		today := time.Now().UTC().Format("2006-01-02")
		if err := db.Model(&models.OutfitTryonGeneration{}).Where("company_id = ? AND DATE(created_at) = ?", company.ID, today).Count(&dailyTryOnCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get try-on data"})
		}
		fmt.Printf("[User %v] Enforced daily limit, try-on count: %v", user.ID, dailyTryOnCount)
		if dailyTryOnCount >= int64(*company.EnforcedDailyTryOnLimit) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the limit of %v daily generations. Please wait for the next day.", *company.EnforcedDailyTryOnLimit)})
		}
	}

	tryOn := models.OutfitTryonGeneration{
		TopGarmentID:           req.TopGarmentId,
		BottomGarmentID:        req.BottomGarmentId,
		ShoesGarmentID:         req.ShoesGarmentId,
		OuterwearGarmentID:     req.OuterwearGarmentId,
		OutfitKey:              outfitKey,
		UserAccountID:          user.ID,
		CompanyID:              company.ID,
		GeneratedWithAvatarURL: *user.UserFullBodyImageURL,
		Status:                 "pending",
	}
	if err := db.Create(&tryOn).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate try-on, please try again"})
	}

	task, err := tasks.NewTryOnGenerationTask(tryOn.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start generation, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("generate"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start generation, please try again"})
	}
	fmt.Println("[Queue] Try on generation task submitted, Try ID: ", tryOn.ID, " Task ID: ", info.ID)

	return c.JSON(http.StatusCreated, TryOnCreatedResponse{
		TryOnID: tryOn.ID,
		Status:  tryOn.Status,
	})
}

func (controller *OutfitsController) tryOnResponse(ctx context.Context, tryOn models.OutfitTryonGeneration) TryOnCreatedResponse {
	response := TryOnCreatedResponse{
		TryOnID: tryOn.ID,
		Status:  tryOn.Status,
	}
	if tryOn.TryOnPreviewImageURL != nil && *tryOn.TryOnPreviewImageURL != "" {
		url, err := controller.URLCache.GetReadURL(ctx, *tryOn.TryOnPreviewImageURL)
		if err != nil {
			bucketName := services.GetEnv("R2_BUCKET_NAME", "")
			url, err = controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, *tryOn.TryOnPreviewImageURL)
			if err != nil {
				log.Printf("CRITICAL: R2 presign failed for try-on preview '%s': %v", *tryOn.TryOnPreviewImageURL, err)
				sentry.CaptureException(err)
				return response
			}
		}
		response.TryOnPreviewImageURL = &url
	}
	return response
}

func (controller *OutfitsController) GetTryOn(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var tryOnId uint
	if err := echo.PathParamsBinder(c).Uint("tryOnId", &tryOnId).BindError(); err != nil {
		return echo.ErrBadRequest
	}

	var tryOn models.OutfitTryonGeneration
	r := db.Where("id = ? AND user_account_id = ?", tryOnId, user.ID).Limit(1).Find(&tryOn)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch try-on"})
	}
	if r.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Try-on not found"})
	}
	return c.JSON(http.StatusOK, controller.tryOnResponse(c.Request().Context(), tryOn))
}

func (controller *OutfitsController) GetColorimetry(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var colorimetry models.UserColorimetry
	r := db.Where("user_account_id = ?", user.ID).Limit(1).Find(&colorimetry)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch colorimetry"})
	}
	if r.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No colorimetry profile yet"})
	}
	return c.JSON(http.StatusOK, colorimetry)
}

func (controller *OutfitsController) SetColorimetry(c echo.Context) error {
	var req models.ColorimetryIn
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

	var colorimetry models.UserColorimetry
	r := db.Where("user_account_id = ?", user.ID).Limit(1).Find(&colorimetry)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch colorimetry"})
	}
	colorimetry.UserAccountID = user.ID
	colorimetry.FavorColors = pq.StringArray(req.FavorColors)
	colorimetry.AvoidColors = pq.StringArray(req.AvoidColors)
	colorimetry.SeasonType = req.SeasonType
	if err := db.Save(&colorimetry).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save colorimetry"})
	}
	fmt.Printf("[User %v] Colorimetry profile saved, favors %v colors \n", user.ID, len(req.FavorColors))
	return c.JSON(http.StatusOK, colorimetry)
}
