package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// LLMModelName selects the GenAI model used for a request.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
	Flash25Image
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash25Image:
		return "gemini-2.5-flash-image-preview"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

func Int64Pointer(i int64) *int64 {
	return &i
}

func Int32Pointer(i int32) *int32 {
	return &i
}

type LLMResponse struct {
	Response           string   `json:"response"`
	Images             [][]byte `json:"images,omitempty"`
	InputTokenCount    int32    `json:"input_token_count"`
	Thoughts           string   `json:"thoughts"`
	ThoughtsTokenCount int32    `json:"thoughts_token_count"`
	OutputTokenCount   int32    `json:"output_token_count"`
	TotalTokenCount    int32    `json:"total_token_count"`
	IsTest             bool     `json:"is_test"`
}

// GarmentVisionAttributes is the classifier's JSON payload for one photo.
type GarmentVisionAttributes struct {
	Category       string `json:"category"`
	Color          string `json:"color"`
	SecondaryColor string `json:"secondary_color"`
	Style          string `json:"style"`
	Season         string `json:"season"`
	Pattern        string `json:"pattern"`
	Material       string `json:"material"`
	SizeOffset     int    `json:"size_offset"`
}

// VisionProcessor is the external model facade the worker depends on.
type VisionProcessor interface {
	ClassifyGarment(filePath string, modelName LLMModelName) (*LLMResponse, error)
	ProcessAvatarTask(personAvatarPath string, modelName LLMModelName) (*LLMResponse, error)
	GenerateTryOn(personAvatarPath string, filePaths []string, modelName LLMModelName) (*LLMResponse, error)
}

type GoogleVisionProcessor struct{}

type ResponseWithThoughts struct {
	Thoughts string `json:"thoughts"`
	Text     string `json:"text"`
}

func tryUploadGoogleStorage(ctx context.Context, client *genai.Client, filePath string, newName *string) (*genai.File, error) {
	var genFile *genai.File
	var err error
	maxUploadTimes := 3
	for i := range maxUploadTimes {
		config := &genai.UploadFileConfig{}
		if newName != nil {
			config = &genai.UploadFileConfig{
				Name: *newName,
			}
		}

		genFile, err = client.Files.UploadFromPath(ctx, filePath, config)
		if err == nil {
			fmt.Println("File uploaded successfully:", filePath, "Attempt:", i+1)
			return genFile, nil
		}
		fmt.Printf("Error uploading file %s, attempt %d: %v\n", filePath, i+1, err)
	}
	return nil, fmt.Errorf("failed to upload file to google storage after %d attempts: %s", maxUploadTimes, filePath)
}

func GetAllInlineImages(result *genai.GenerateContentResponse) ([][]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("empty response")
	}

	var allImageData [][]byte
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil || len(cand.Content.Parts) == 0 {
			continue
		}
		for _, part := range cand.Content.Parts {
			inlineData := part.InlineData
			if inlineData == nil {
				continue
			}
			if strings.HasPrefix(inlineData.MIMEType, "image/") && len(inlineData.Data) > 0 {
				allImageData = append(allImageData, inlineData.Data)
			}
		}
	}
	if len(allImageData) == 0 {
		return nil, nil
	}
	return allImageData, nil
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		fmt.Println("Finish reason: ", c.FinishReason, " Finish message: ", c.FinishMessage)
		if len(c.SafetyRatings) > 0 {
			fmt.Println("[Safety] Safety ratings present:", len(c.SafetyRatings))
			for _, rating := range c.SafetyRatings {
				fmt.Println("[Safety] rating:", rating.Category, "Score:", rating.Probability, " Blocked:", rating.Blocked)
				if rating.Blocked {
					return nil, fmt.Errorf("content violation: the photo contains %s", rating.Category)
				}
			}
		}
		for _, part := range c.Content.Parts {
			if part.Thought && part.Text != "" {
				thinkingContent = part.Text
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}

func newGenAIClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
}

func buildLLMResponse(result *genai.GenerateContentResponse, withImages bool) (*LLMResponse, error) {
	var inputTokenCount, thoughtsTokenCount, outputTokenCount, totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		thoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Input token count:", inputTokenCount)
		fmt.Println("Output token count:", outputTokenCount)
		fmt.Println("Thoughts token count:", thoughtsTokenCount)
		fmt.Println("Total token count:", totalTokenCount)
	} else {
		fmt.Println("UsageMetadata is nil!")
	}

	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		fmt.Println(result.PromptFeedback.BlockReasonMessage)
		return nil, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}

	var images [][]byte
	if withImages {
		var err error
		images, err = GetAllInlineImages(result)
		if err != nil {
			return nil, fmt.Errorf("error getting candidate images: %v", err)
		}
		fmt.Println("Number of images extracted:", len(images))
	}

	text, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		return nil, fmt.Errorf("error getting candidate text: %v", err)
	}
	return &LLMResponse{
		Response:           text.Text,
		Images:             images,
		Thoughts:           text.Thoughts,
		InputTokenCount:    inputTokenCount,
		ThoughtsTokenCount: thoughtsTokenCount,
		OutputTokenCount:   outputTokenCount,
		TotalTokenCount:    totalTokenCount,
	}, nil
}

var dashAlphaRule = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// ClassifyGarment sends one garment photo through the vision model with a
// strict JSON response schema matching GarmentVisionAttributes.
func (GoogleVisionProcessor) ClassifyGarment(filePath string, modelName LLMModelName) (*LLMResponse, error) {
	ctx := context.Background()
	client, err := newGenAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %v", err)
	}

	fileName := filepath.Base(filePath)
	sanitizedFileName := dashAlphaRule.ReplaceAllString(strings.ReplaceAll(fileName, ".", "-"), "")
	genFile, err := tryUploadGoogleStorage(ctx, client, filePath, &sanitizedFileName)
	if err != nil {
		fmt.Println("Error uploading file:", filePath, err)
		return nil, fmt.Errorf("error uploading file to google storage %s: %v", filePath, err)
	}

	parts := []*genai.Part{
		{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		},
		{
			Text: "Classify the single clothing item in this photo.",
		},
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  4000,
		Temperature:      floatPointer(0.2),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: `You are an expert fashion cataloguer. Analyze the photo of a single clothing item and return its attributes in JSON.
- "category": the garment type in Spanish, specific (e.g. "Camiseta de manga corta", "Pantalón chino", "Zapatilla deportiva").
- "color": the dominant color in Spanish lowercase (e.g. "azul marino", "blanco", "rojo").
- "secondary_color": the second most present color, or empty string.
- "style": one of casual, formal, deportivo, elegante, business, fiesta, vintage, streetwear.
- "season": one of verano, primavera, invierno, otono, all_season.
- "pattern": liso, rayas, cuadros, estampado or similar; empty if unclear.
- "material": best guess of the main material in Spanish; empty if unclear.
- "size_offset": -1 if the item looks slim/small cut, 1 if oversized, 0 otherwise.
If no clothing item is visible, set category to "" and leave the other fields empty.`},
			},
		},
		ResponseSchema: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"category": {
					Type: "string",
				},
				"color": {
					Type: "string",
				},
				"secondary_color": {
					Type: "string",
				},
				"style": {
					Type: "string",
				},
				"season": {
					Type: "string",
				},
				"pattern": {
					Type: "string",
				},
				"material": {
					Type: "string",
				},
				"size_offset": {
					Type: "integer",
				},
			},
			Required: []string{"category", "color", "style", "season"},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}
	return buildLLMResponse(result, false)
}

// ProcessAvatarTask rebuilds the user's photo into a clean full-body
// avatar on a flat white background, used later as the try-on base.
func (GoogleVisionProcessor) ProcessAvatarTask(personAvatarPath string, modelName LLMModelName) (*LLMResponse, error) {
	ctx := context.Background()
	client, err := newGenAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %v", err)
	}

	personAvatarFile, err := tryUploadGoogleStorage(ctx, client, personAvatarPath, nil)
	if err != nil {
		fmt.Println("Error uploading person avatar file:", personAvatarPath, err)
		return nil, fmt.Errorf("error uploading person avatar file %s: %v", personAvatarPath, err)
	}

	parts := []*genai.Part{
		{
			FileData: &genai.FileData{
				FileURI:  personAvatarFile.URI,
				MIMEType: personAvatarFile.MIMEType,
			},
		},
		{
			Text: "Generate a fashion-style full-body head to toe portrait of the person from the image, keeping identity, personality and facial identity 100% the same, on a solid flat unlit white background. The person should be centered, take about 70% of the image area, standing straight facing the camera in a relaxed confident pose with neutral white shirt, white trousers and white neutral shoes. Natural soft professional lighting, high resolution. Remove items from hands and clean all background elements, watermarks and other people. If no person is detected return \"NO_PERSON\". Aspect ratio 9:16 portrait size.",
		},
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		MaxOutputTokens: 50000,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: `If no person is detected in the image return NO_PERSON as response. Otherwise provide only a full body avatar.`},
			},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}
	return buildLLMResponse(result, true)
}

// GenerateTryOn dresses the avatar from personAvatarPath in the garment
// photos from filePaths and returns the rendered preview image.
func (GoogleVisionProcessor) GenerateTryOn(personAvatarPath string, filePaths []string, modelName LLMModelName) (*LLMResponse, error) {
	ctx := context.Background()
	client, err := newGenAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %v", err)
	}

	var genFiles []*genai.File
	genFile, err := tryUploadGoogleStorage(ctx, client, personAvatarPath, nil)
	if err != nil {
		fmt.Println("Error uploading person avatar file:", personAvatarPath, err)
		return nil, fmt.Errorf("error uploading file %s: %v", personAvatarPath, err)
	}
	genFiles = append(genFiles, genFile)

	for i, filePath := range filePaths {
		if filePath == "" {
			fmt.Println("File path empty in index:", i)
			continue
		}
		genFile, err := tryUploadGoogleStorage(ctx, client, filePath, nil)
		if err != nil {
			fmt.Println("Error uploading file:", filePath, err)
			return nil, fmt.Errorf("error uploading file %s: %v", filePath, err)
		}
		genFiles = append(genFiles, genFile)
	}

	var parts []*genai.Part
	for i, genFile := range genFiles {
		fmt.Println("File path for image parse:", i, " ", genFile.URI, genFile.MIMEType)
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		})
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 50000,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: `Edit the first person image into a fashion-style full-body head to toe portrait, keeping identity, placement in the image center, facial identity 100% the same and the same solid flat unlit white background including ratio. Take all images after the first one and let the exact same person from the first image wear them. For missing clothing slots keep the original items the person wears. Keep body/hand/head/leg sizes identical. Straight facing the camera in a relaxed confident pose. Natural soft professional lighting, high resolution. Remove items from hands and clean all background elements, watermarks and other people. If no person is detected return "NO_PERSON", otherwise output only the full-body person on the flat all-white background without grayish gradients. Aspect ratio 9:16 portrait size.`},
			},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}
	return buildLLMResponse(result, true)
}
