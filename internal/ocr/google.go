package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"campusid/internal/models"
)

// GoogleProvider is the live gateway: Vision document OCR on each card
// side, then Gemini structuring of the combined text into card fields.
type GoogleProvider struct {
	credentialsFile string
	geminiAPIKey    string
	timeout         time.Duration
	httpClient      *http.Client
}

func NewGoogleProvider(credentialsFile, geminiAPIKey string, timeout time.Duration) *GoogleProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleProvider{
		credentialsFile: credentialsFile,
		geminiAPIKey:    geminiAPIKey,
		timeout:         timeout,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Extract runs the document pair through Vision and Gemini under one
// deadline. The aggregate confidence is the mean page confidence Vision
// reports across both sides.
func (p *GoogleProvider) Extract(ctx context.Context, frontImageRef, backImageRef string) (models.RawExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var client *vision.ImageAnnotatorClient
	var err error
	if p.credentialsFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(p.credentialsFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return models.RawExtraction{}, serviceErr(fmt.Errorf("failed to init OCR client: %w", err))
	}
	defer client.Close()

	text, conf, err := p.readSide(ctx, client, frontImageRef)
	if err != nil {
		return models.RawExtraction{}, classify(err)
	}
	pages := 1
	if backImageRef != "" {
		backText, backConf, err := p.readSide(ctx, client, backImageRef)
		if err != nil {
			return models.RawExtraction{}, classify(err)
		}
		text += "\n" + backText
		conf += backConf
		pages++
	}

	fields, err := p.parseFields(ctx, text)
	if err != nil {
		return models.RawExtraction{}, classify(err)
	}

	return models.RawExtraction{
		Fields:     fields,
		Confidence: conf / float64(pages),
	}, nil
}

// readSide fetches one image ref and runs document text detection on it.
func (p *GoogleProvider) readSide(ctx context.Context, client *vision.ImageAnnotatorClient, imageRef string) (string, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
	if err != nil {
		return "", 0, fmt.Errorf("bad image reference %q: %w", imageRef, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	imgBytes, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read image bytes: %w", err)
	}
	if len(imgBytes) == 0 {
		return "", 0, errors.New("image body was empty")
	}

	annotation, err := client.DetectDocumentText(ctx, &visionpb.Image{Content: imgBytes}, nil)
	if err != nil {
		return "", 0, fmt.Errorf("vision document text detection failed: %w", err)
	}
	if annotation == nil || annotation.Text == "" {
		return "", 0, errors.New("no text found in image")
	}

	conf := 0.0
	for _, page := range annotation.Pages {
		conf += float64(page.Confidence)
	}
	if n := len(annotation.Pages); n > 0 {
		conf /= float64(n)
	}
	return annotation.Text, conf, nil
}

func classify(err error) *ExtractionError {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutErr(err)
	}
	return serviceErr(err)
}
