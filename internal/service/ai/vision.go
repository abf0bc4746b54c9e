package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chikara-ai/backend/internal/analysis/mood"
	"github.com/chikara-ai/backend/internal/media"
)

// ImageAnalysis is the vision model's summary of an upload.
type ImageAnalysis struct {
	Mood    mood.Label `json:"mood"`
	Summary string     `json:"summary"`
}

// VisionPrompt is the instruction sent alongside the image.
func VisionPrompt(label mood.Label) string {
	return fmt.Sprintf("Analyze this image (prescription/notes). Give a concise summary. Add humour based on mood: %s.", label)
}

// AnalyzeImage asks the vision model to summarise an image. The mood is
// classified from caption; an empty caption yields neutral.
func (s *Service) AnalyzeImage(ctx context.Context, img media.EncodedImage, caption string) (*ImageAnalysis, error) {
	label := mood.Classify(strings.TrimSpace(caption))

	input := []*schema.Message{{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: VisionPrompt(label)},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: img.DataURI()}},
		},
	}}

	var opts []model.Option
	if s.cfg.VisionMaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(s.cfg.VisionMaxTokens))
	}

	reply, err := s.visionModel.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	log.Printf("[ai] analyzed image mime=%s, mood=%s, length=%d", img.MIMEType, label, len(reply.Content))
	return &ImageAnalysis{Mood: label, Summary: reply.Content}, nil
}
