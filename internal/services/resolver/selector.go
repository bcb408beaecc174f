package resolver

import (
	"math"

	"github.com/samber/lo"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// Select picks the stream(s) to hand back to the client.
//
// Policy is combined-preferred: if any descriptor carries both video and
// audio, the tallest one wins and no split pair is returned, even when a
// taller video-only stream exists. Without a combined stream the best
// audio-only stream is chosen, paired with the tallest video-only stream when
// one exists. A video-only stream with no audio partner is never returned.
//
// Missing height or bitrate compares as negative infinity. Ties keep the
// descriptor that came first.
func Select(formats []models.FormatDescriptor) (models.SelectionResult, error) {
	usable := lo.Filter(formats, func(f models.FormatDescriptor, _ int) bool {
		return f.URL != ""
	})

	combined := lo.Filter(usable, func(f models.FormatDescriptor, _ int) bool {
		return f.IsCombined()
	})
	if len(combined) > 0 {
		best := lo.MaxBy(combined, tallerThan)
		return models.SelectionResult{VideoURL: best.URL, Combined: true}, nil
	}

	audioOnly := lo.Filter(usable, func(f models.FormatDescriptor, _ int) bool {
		return f.IsAudioOnly()
	})
	if len(audioOnly) == 0 {
		return models.SelectionResult{}, utils.NewResolutionError(
			utils.KindNoSuitableFormat,
			"no playable video or audio format found",
			nil,
		)
	}

	result := models.SelectionResult{AudioURL: lo.MaxBy(audioOnly, richerThan).URL}

	videoOnly := lo.Filter(usable, func(f models.FormatDescriptor, _ int) bool {
		return f.IsVideoOnly()
	})
	if len(videoOnly) > 0 {
		result.VideoURL = lo.MaxBy(videoOnly, tallerThan).URL
	}

	return result, nil
}

func tallerThan(a, b models.FormatDescriptor) bool {
	return heightOf(a) > heightOf(b)
}

func richerThan(a, b models.FormatDescriptor) bool {
	return bitrateOf(a) > bitrateOf(b)
}

func heightOf(f models.FormatDescriptor) float64 {
	if h, ok := f.Height.Get(); ok {
		return float64(h)
	}
	return math.Inf(-1)
}

func bitrateOf(f models.FormatDescriptor) float64 {
	if abr, ok := f.AudioBitrate.Get(); ok {
		return abr
	}
	return math.Inf(-1)
}
