package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/pkg/genqueue"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/render"
)

// ErrInvalidBrief is returned for briefs missing required fields.
var ErrInvalidBrief = errors.New("generate: invalid brief")

// Writer produces outlines.
type Writer struct {
	Text        TextGenerator
	Model       string
	Temperature float64
	Log         logrus.FieldLogger
}

// NewWriter returns a Writer with the default model and temperature.
func NewWriter(text TextGenerator, log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{Text: text, Model: DefaultOutlineModel, Temperature: DefaultTemperature, Log: log}
}

// Validate checks the fields an outline request needs.
func (b Brief) Validate() error {
	var missing []string
	for _, f := range [][2]string{{"title", b.Title}, {"company", b.Company}, {"creator", b.Creator}} {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidBrief, strings.Join(missing, ", "))
	}
	if b.SlideCount <= 0 {
		return fmt.Errorf("%w: slide count must be positive", ErrInvalidBrief)
	}
	return nil
}

// Outline asks for an outline and splits it into exactly b.SlideCount
// slides. The raw text is returned alongside, truncated to the slides kept.
func (w *Writer) Outline(ctx context.Context, b Brief) ([]outline.Slide, string, error) {
	if err := b.Validate(); err != nil {
		return nil, "", err
	}
	log := w.Log.WithField("slides", b.SlideCount)
	raw, err := w.Text.GenerateText(ctx, OutlineMessages(b), w.Model, w.Temperature)
	if err != nil {
		return nil, "", fmt.Errorf("generate outline: %w", err)
	}
	slides, err := outline.Split(raw, b.SlideCount)
	if err != nil {
		log.WithError(err).Warn("outline rejected")
		return nil, "", err
	}
	log.Info("outline generated")
	return slides, outline.Join(slides), nil
}

// Narrator writes spoken narration for slides.
type Narrator struct {
	Text  TextGenerator
	Model string
}

func NewNarrator(text TextGenerator) *Narrator {
	return &Narrator{Text: text, Model: DefaultNarrationModel}
}

func (n *Narrator) Narrate(ctx context.Context, slide string) (string, error) {
	out, err := n.Text.GenerateText(ctx, NarrationMessages(slide), n.Model, DefaultTemperature)
	if err != nil {
		return "", fmt.Errorf("generate narration: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// ImageWorker adapts an image generator to the generation queue. A nil
// asset means the service produced no image.
func ImageWorker(images ImageGenerator) genqueue.Worker[*render.Asset] {
	return func(ctx context.Context, slide string) (*render.Asset, error) {
		url, err := images.GenerateImage(ctx, ImagePrompt(slide))
		if err != nil {
			return nil, err
		}
		if url == "" {
			return nil, nil
		}
		return &render.Asset{ID: uuid.NewString(), URL: url, Alt: ImageAlt(slide)}, nil
	}
}

// NarrationWorker adapts a narrator to the generation queue.
func NarrationWorker(n *Narrator) genqueue.Worker[string] {
	return n.Narrate
}
