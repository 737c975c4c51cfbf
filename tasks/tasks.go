package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"armariapi/models"
	"armariapi/outfit"
	"armariapi/services"
)

const (
	TypeGarmentClassify  = "garment:classify"
	TypeTryOnGeneration  = "generate:tryon"
	TypeAvatarProcess    = "avatar:process"
	TypeDailyOutfitAlert = "scheduled:daily_outfit"
)

type GarmentClassifyPayload struct {
	GarmentID uint `json:"garment_id"`
}

type TryOnGenerationPayload struct {
	TryOnID uint `json:"try_on_id"`
}

type AvatarProcessPayload struct {
	UserID uint `json:"user_id"`
}

func NewGarmentClassifyTask(garmentID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(GarmentClassifyPayload{GarmentID: garmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGarmentClassify, payload), nil
}

func NewTryOnGenerationTask(tryOnID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(TryOnGenerationPayload{TryOnID: tryOnID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTryOnGeneration, payload), nil
}

func NewAvatarProcessTask(userID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(AvatarProcessPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAvatarProcess, payload), nil
}

// getFileForGarment downloads the garment photo from R2 via a fresh
// presigned read URL.
func getFileForGarment(awsService services.AWSServiceProvider, garment models.Garment) ([]byte, string, error) {
	bucketName := os.Getenv("R2_BUCKET_NAME")
	if garment.ImageURL == nil {
		return nil, "", fmt.Errorf("[Garment: %v] Image URL is nil", garment.ID)
	}
	fileUrl, err := awsService.GetPresignedR2FileReadURL(context.TODO(), bucketName, *garment.ImageURL)
	fileName := filepath.Base(*garment.ImageURL)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on getting presigned URL for file %s", garment.ID, *garment.ImageURL))
		return nil, fileName, err
	}
	fmt.Printf("[Garment: %v] Downloading... %s\n", garment.ID, fileUrl)
	fileBytes, err := services.ReadFileFromUrl(fileUrl)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on downloading file %s: %v", garment.ID, *garment.ImageURL, err))
		return nil, fileName, err
	}
	return fileBytes, fileName, nil
}

func downloadToTempFile(awsService services.AWSServiceProvider, objectKey string) (string, error) {
	bucketName := os.Getenv("R2_BUCKET_NAME")
	fileUrl, err := awsService.GetPresignedR2FileReadURL(context.TODO(), bucketName, objectKey)
	if err != nil {
		return "", fmt.Errorf("error presigning %s: %v", objectKey, err)
	}
	fileBytes, err := services.ReadFileFromUrl(fileUrl)
	if err != nil {
		return "", fmt.Errorf("error downloading %s: %v", objectKey, err)
	}
	return services.CreateTempFile(fileBytes, filepath.Base(objectKey))
}

func cleanModelResponseText(text string) string {
	cleanContent := strings.ReplaceAll(text, "```json", "")
	cleanContent = strings.TrimSuffix(strings.TrimSpace(cleanContent), "```")
	return cleanContent
}

func pickModel(company models.Company, fallback services.LLMModelName) services.LLMModelName {
	if company.EnforcedLLMModel != nil {
		model := services.LLMModelName(*company.EnforcedLLMModel)
		fmt.Printf("[ENFORCE MODEL] Using enforced model: %s\n", model.String())
		return model
	}
	return fallback
}

// HandleGarmentClassifyTask downloads the garment photo, runs the vision
// classifier and stores the extracted attributes on the garment row.
func HandleGarmentClassifyTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, vision services.VisionProcessor,
	awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	googleKey := os.Getenv("GOOGLE_API_KEY")
	if googleKey == "" {
		sentry.CaptureException(fmt.Errorf("[QUEUE] %s Google API key is not set", string(t.Payload())))
		return fmt.Errorf("[QUEUE] %s Google API key is not set", string(t.Payload()))
	}
	var payload GarmentClassifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Garment: %v] Start Classifying\n", payload.GarmentID)

	var garment models.Garment
	res := db.Joins("Company").First(&garment, payload.GarmentID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving garment for classify %v", payload.GarmentID))
		return res.Error
	}

	fileBytes, fileName, err := getFileForGarment(awsService, garment)
	if err != nil {
		saveGarmentClassifyFail(db, garment, "Failed to read garment photo, please upload it again", false)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on getting file: %v", payload.GarmentID, err))
		return err
	}
	fmt.Printf("[Garment: %v] Downloaded file size: %d bytes\n", payload.GarmentID, len(fileBytes))

	filePath, err := services.CreateTempFile(fileBytes, fileName)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on creating temp file %s: %v", payload.GarmentID, fileName, err))
		return err
	}
	defer os.Remove(filePath)

	model := pickModel(garment.Company, services.Flash25)
	modelString := model.String()
	fmt.Printf("[Garment: %v] Model: %s\n", payload.GarmentID, modelString)

	visionResponse, err := vision.ClassifyGarment(filePath, model)
	if err != nil {
		if strings.Contains(err.Error(), "content violation") {
			saveGarmentClassifyFail(db, garment, "Sorry, this photo contains content that we cannot process", false)
			sentry.CaptureException(fmt.Errorf("[Garment: %v] Content violation on classifying photo: %v", payload.GarmentID, err))
			return nil
		}
		saveGarmentClassifyFail(db, garment, "Failed to analyze the garment photo, please try again", true)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on classifying photo: %v", payload.GarmentID, err))
		return err
	}
	if visionResponse == nil {
		saveGarmentClassifyFail(db, garment, "Failed to analyze the garment photo, please try again", true)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Response is nil but no error provided on classifying", payload.GarmentID))
		return fmt.Errorf("[Garment: %v] Response is nil but no error provided on classifying", payload.GarmentID)
	}

	cleanContent := cleanModelResponseText(visionResponse.Response)
	fmt.Printf("[Garment: %v] LLM Processed: %q, IT: %d, OT: %d, TT: %d, TOT: %d\n",
		payload.GarmentID, cleanContent, visionResponse.InputTokenCount, visionResponse.OutputTokenCount,
		visionResponse.ThoughtsTokenCount, visionResponse.TotalTokenCount)

	var attributes services.GarmentVisionAttributes
	if err := json.Unmarshal([]byte(cleanContent), &attributes); err != nil {
		fmt.Printf("[Garment: %v] Error on parsing Gemini %s AI json %s\n", payload.GarmentID, modelString, visionResponse.Response)
		saveGarmentClassifyFail(db, garment, "Failed to read the garment attributes, please try again later", true)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on parsing Gemini %s AI json %s", payload.GarmentID, modelString, visionResponse.Response))
		return err
	}
	if attributes.Category == "" {
		saveGarmentClassifyFail(db, garment, "We could not find a clothing item in this photo, please upload another one", false)
		return nil
	}

	garment.Category = attributes.Category
	garment.Color = attributes.Color
	garment.SecondaryColor = attributes.SecondaryColor
	garment.Style = attributes.Style
	garment.Season = attributes.Season
	garment.Pattern = attributes.Pattern
	garment.Material = attributes.Material
	garment.SizeOffset = attributes.SizeOffset
	garment.Status = "in_closet"
	garment.ProcessingStatus = "completed"
	garment.ProcessErrorMessage = nil
	tx := db.Save(&garment)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on saving garment %v", payload.GarmentID))
		return tx.Error
	}
	fmt.Printf("[Garment: %v] Classifying finished succesfully..\n", payload.GarmentID)

	services.SendNotification(fbApp, db, garment.OwnerID, "Garment Ready",
		fmt.Sprintf("%s is now in your closet", garment.Category),
		map[string]string{"garment_id": fmt.Sprintf("%d", garment.ID), "type": "garment_classified"})
	return nil
}

// HandleTryOnGenerationTask renders the try-on preview for a pending
// generation row and uploads it to R2.
func HandleTryOnGenerationTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, vision services.VisionProcessor,
	awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	var payload TryOnGenerationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[TryOn: %v] Start Generating\n", payload.TryOnID)
	startedAt := time.Now()

	var tryOn models.OutfitTryonGeneration
	res := db.Preload("TopGarment").Preload("BottomGarment").Preload("ShoesGarment").
		Preload("OuterwearGarment").Joins("UserAccount").Joins("Company").First(&tryOn, payload.TryOnID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving try-on for generation %v", payload.TryOnID))
		return res.Error
	}
	if tryOn.Status == "completed" {
		fmt.Printf("[TryOn: %v] Already generated\n", payload.TryOnID)
		return nil
	}
	if tryOn.UserAccount.UserFullBodyImageURL == nil {
		saveTryOnFail(db, tryOn, "Set up your full body avatar before generating try-ons", false)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] User %v has no full body avatar", payload.TryOnID, tryOn.UserAccountID))
		return nil
	}

	avatarPath, err := downloadToTempFile(awsService, *tryOn.UserAccount.UserFullBodyImageURL)
	if err != nil {
		saveTryOnFail(db, tryOn, "Failed to read your avatar, please set it again", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on downloading avatar: %v", payload.TryOnID, err))
		return err
	}
	defer os.Remove(avatarPath)

	var garmentPaths []string
	for _, garment := range []*models.Garment{tryOn.TopGarment, tryOn.BottomGarment, tryOn.ShoesGarment, tryOn.OuterwearGarment} {
		if garment == nil || garment.ImageURL == nil {
			continue
		}
		garmentPath, err := downloadToTempFile(awsService, *garment.ImageURL)
		if err != nil {
			saveTryOnFail(db, tryOn, "Failed to read one of the outfit photos, please try again", true)
			sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on downloading garment %v image: %v", payload.TryOnID, garment.ID, err))
			return err
		}
		defer os.Remove(garmentPath)
		garmentPaths = append(garmentPaths, garmentPath)
	}
	if len(garmentPaths) == 0 {
		saveTryOnFail(db, tryOn, "None of the outfit pieces has a photo to try on", false)
		return nil
	}

	model := pickModel(tryOn.Company, services.Flash25Image)
	modelString := model.String()
	fmt.Printf("[TryOn: %v] Model: %s, garment images: %d\n", payload.TryOnID, modelString, len(garmentPaths))

	visionResponse, err := vision.GenerateTryOn(avatarPath, garmentPaths, model)
	if err != nil {
		if strings.Contains(err.Error(), "content violation") {
			saveTryOnFail(db, tryOn, "Sorry, these photos contain content that we cannot process", false)
			sentry.CaptureException(fmt.Errorf("[TryOn: %v] Content violation on generating: %v", payload.TryOnID, err))
			return nil
		}
		saveTryOnFail(db, tryOn, "Failed to generate the try-on preview, please try again", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on generating: %v", payload.TryOnID, err))
		return err
	}
	if visionResponse == nil || len(visionResponse.Images) == 0 {
		if visionResponse != nil && strings.Contains(visionResponse.Response, "NO_PERSON") {
			saveTryOnFail(db, tryOn, "We could not find a person in your avatar, please set a new one", false)
			return nil
		}
		saveTryOnFail(db, tryOn, "The model returned no preview image, please try again", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] No image in generation response", payload.TryOnID))
		return fmt.Errorf("[TryOn: %v] No image in generation response", payload.TryOnID)
	}

	previewBytes, err := services.WhitenBackgroundFeathered(visionResponse.Images[0], 200, 245, 0.55)
	if err != nil {
		fmt.Printf("[TryOn: %v] Error on whitening background, using raw image: %v\n", payload.TryOnID, err)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on whitening background: %v", payload.TryOnID, err))
		previewBytes = visionResponse.Images[0]
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	previewKey := fmt.Sprintf("tryons/tryon-%v.png", tryOn.ID)
	uploadUrl, presignErr := awsService.PresignLink(context.Background(), bucketName, previewKey)
	if presignErr != nil {
		fmt.Printf("[TryOn: %v] Unable to create presign link: %v\n", payload.TryOnID, presignErr)
		sentry.CaptureException(presignErr)
		return presignErr
	}
	respBody, statusCode, err := awsService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, previewBytes)
	fmt.Printf("[TryOn: %v] R2 Upload file size %v, response body: %s, status code: %d\n", payload.TryOnID, len(previewBytes), respBody, statusCode)
	if err != nil || statusCode != 200 {
		saveTryOnFail(db, tryOn, "Failed to store the try-on preview, please try again", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on uploading preview: %v, status %d", payload.TryOnID, err, statusCode))
		return err
	}

	duration := time.Since(startedAt).Seconds()
	tryOn.TryOnPreviewImageURL = &previewKey
	tryOn.GeneratedWithAvatarURL = *tryOn.UserAccount.UserFullBodyImageURL
	tryOn.Status = "completed"
	tryOn.Duration = &duration
	tryOn.LLMModel = &modelString
	tryOn.LLMInputTokenCount = services.Int32Pointer(visionResponse.InputTokenCount)
	tryOn.LLMOutputTokenCount = services.Int32Pointer(visionResponse.OutputTokenCount)
	tryOn.LLMTotalTokenCount = services.Int32Pointer(visionResponse.TotalTokenCount)
	tryOn.LLMThoughtsTokenCount = services.Int32Pointer(visionResponse.ThoughtsTokenCount)
	tryOn.GenerationErrorMessage = nil
	tx := db.Save(&tryOn)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on saving try-on %v", payload.TryOnID))
		return tx.Error
	}
	fmt.Printf("[TryOn: %v] Generation finished succesfully in %.1fs\n", payload.TryOnID, duration)

	services.SendNotification(fbApp, db, tryOn.UserAccountID, "Try-On Ready",
		"Your outfit preview has been generated",
		map[string]string{"try_on_id": fmt.Sprintf("%d", tryOn.ID), "type": "try_on_generated"})
	return nil
}

// HandleAvatarProcessTask rebuilds the user's uploaded photo into the
// clean full-body avatar used as the try-on base.
func HandleAvatarProcessTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, vision services.VisionProcessor,
	awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	var payload AvatarProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Avatar: %v] Start Processing\n", payload.UserID)

	var user models.UserAccount
	res := db.First(&user, payload.UserID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving user for avatar processing %v", payload.UserID))
		return res.Error
	}
	if user.UserFullBodyImageURL == nil {
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] User has no uploaded photo", payload.UserID))
		return fmt.Errorf("[Avatar: %v] User has no uploaded photo", payload.UserID)
	}

	photoPath, err := downloadToTempFile(awsService, *user.UserFullBodyImageURL)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] Error on downloading photo: %v", payload.UserID, err))
		return err
	}
	defer os.Remove(photoPath)

	visionResponse, err := vision.ProcessAvatarTask(photoPath, services.Flash25Image)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] Error on processing avatar: %v", payload.UserID, err))
		return err
	}
	if visionResponse == nil || len(visionResponse.Images) == 0 {
		if visionResponse != nil && strings.Contains(visionResponse.Response, "NO_PERSON") {
			user.FullBodyAvatarStatus = "failed"
			db.Save(&user)
			services.SendNotification(fbApp, db, user.ID, "Avatar Failed",
				"We could not find a person in your photo, please upload another one",
				map[string]string{"type": "avatar_failed"})
			return nil
		}
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] No image in avatar response", payload.UserID))
		return fmt.Errorf("[Avatar: %v] No image in avatar response", payload.UserID)
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	avatarKey := fmt.Sprintf("avatars/avatar-%v.png", user.ID)
	uploadUrl, presignErr := awsService.PresignLink(context.Background(), bucketName, avatarKey)
	if presignErr != nil {
		sentry.CaptureException(presignErr)
		return presignErr
	}
	respBody, statusCode, err := awsService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, visionResponse.Images[0])
	fmt.Printf("[Avatar: %v] R2 Upload response body: %s, status code: %d\n", payload.UserID, respBody, statusCode)
	if err != nil || statusCode != 200 {
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] Error on uploading avatar: %v, status %d", payload.UserID, err, statusCode))
		return err
	}

	user.UserFullBodyImageURL = &avatarKey
	user.FullBodyAvatarSet = true
	user.FullBodyAvatarStatus = "completed"
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Avatar: %v] Error on saving user: %v", payload.UserID, err))
		return err
	}
	fmt.Printf("[Avatar: %v] Avatar processing finished succesfully..\n", payload.UserID)

	services.SendNotification(fbApp, db, user.ID, "Avatar Ready",
		"Your full body avatar is ready for try-ons",
		map[string]string{"type": "avatar_ready"})
	return nil
}

func saveGarmentClassifyFail(db *gorm.DB, garment models.Garment, msg string, shouldRetry bool) error {
	garment.ProcessRetryTimes = garment.ProcessRetryTimes + 1
	garment.ProcessErrorMessage = &msg
	if !shouldRetry || garment.ProcessRetryTimes >= 3 {
		garment.ProcessingStatus = "failed"
	}
	tx := db.Save(&garment)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail Garment %v] Error on saving garment for failed status", garment.ID))
		return tx.Error
	}
	return nil
}

func saveTryOnFail(db *gorm.DB, tryOn models.OutfitTryonGeneration, msg string, shouldRetry bool) error {
	tryOn.GenerationRetryTimes = tryOn.GenerationRetryTimes + 1
	tryOn.GenerationErrorMessage = &msg
	if !shouldRetry || tryOn.GenerationRetryTimes >= 3 {
		tryOn.Status = "failed"
	}
	tx := db.Save(&tryOn)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail TryOn %v] Error on saving try-on for failed status", tryOn.ID))
		return tx.Error
	}
	return nil
}

// ScheduledDailyOutfitTask suggests one outfit of the day to every user
// who keeps notifications on.
func ScheduledDailyOutfitTask(ctx context.Context, t *asynq.Task, db *gorm.DB, fbApp *firebase.App) error {
	fmt.Printf("[Daily Outfit] Processing for all users\n")

	var users []models.UserAccount
	result := db.Where("banned = ? AND receive_notifications = ?", false, true).Find(&users)
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Daily Outfit] Error fetching users: %v", result.Error))
		return result.Error
	}
	fmt.Printf("[Daily Outfit] Found %d users to send suggestions\n", len(users))

	for _, user := range users {
		err := sendDailyOutfitToUser(ctx, db, fbApp, user.ID)
		if err != nil {
			fmt.Printf("[Daily Outfit] Failed to send to user %d: %v\n", user.ID, err)
			sentry.CaptureException(fmt.Errorf("[Daily Outfit] Failed to send to user %d: %v", user.ID, err))
			continue
		}
		time.Sleep(1 * time.Second) // To avoid hitting rate limits
	}
	return nil
}

func sendDailyOutfitToUser(ctx context.Context, db *gorm.DB, fbApp *firebase.App, userID uint) error {
	var garments []models.Garment
	result := db.Where("owner_id = ? AND status = ? AND processing_status = ?",
		userID, "in_closet", "completed").Find(&garments)
	if result.Error != nil {
		return fmt.Errorf("error fetching user closet: %v", result.Error)
	}
	if len(garments) == 0 {
		fmt.Printf("[Daily Outfit] Empty closet for user %d\n", userID)
		return nil
	}

	closet := make([]outfit.Garment, 0, len(garments))
	for _, garment := range garments {
		closet = append(closet, garment.ToEngine())
	}

	cfg := outfit.DefaultConfig()
	cfg.TreatMissingColorAsNeutral = true
	generator := outfit.NewGenerator(cfg, nil)
	outfits, diag := generator.Generate(closet, outfit.Constraints{EventType: "diario"}, 1)
	if len(outfits) == 0 {
		fmt.Printf("[Daily Outfit] No outfit for user %d: %s\n", userID, diag.EmptyReason)
		return nil
	}

	suggested := outfits[0]
	message := fmt.Sprintf("%s + %s", suggested.Top.Category, suggested.Bottom.Category)
	if suggested.Shoes != nil {
		message = fmt.Sprintf("%s + %s", message, suggested.Shoes.Category)
	}
	if len(message) > 100 {
		message = message[:97] + "..."
	}

	fmt.Println("[Daily Outfit] Sending suggestion to user", userID, "rating", suggested.Rating)
	services.SendNotification(fbApp, db, userID, "Outfit of the Day", message, map[string]string{
		"type":   "daily_outfit",
		"rating": fmt.Sprintf("%d", suggested.Rating),
	})
	return nil
}
