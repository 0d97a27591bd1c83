package domain

import "image"

// BoundingBox is an axis-aligned pixel region, either a detected face or a
// fallback crop. Once clipped, X+Width and Y+Height lie within the image.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns box area
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Rect converts the box to an image.Rectangle anchored at the origin.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Within reports whether the box lies inside a width x height image.
func (b BoundingBox) Within(width, height int) bool {
	return b.X >= 0 && b.Y >= 0 && b.X+b.Width <= width && b.Y+b.Height <= height
}

// EmotionResult is the response for a single analyzed image. FaceInfo is set
// only when a detected face, not the center-crop fallback, was classified.
type EmotionResult struct {
	PredictedEmotion     string             `json:"predicted_emotion"`
	Confidence           float64            `json:"confidence"`
	EmotionProbabilities map[string]float64 `json:"emotion_probabilities"`
	FaceDetected         bool               `json:"face_detected"`
	FaceInfo             *BoundingBox       `json:"face_info,omitempty"`
}
