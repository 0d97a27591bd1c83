package detector

// Type names a detector backend
type Type string

const (
	// TypePigo is the embedded pure-Go cascade detector (default)
	TypePigo Type = "pigo"
	// TypeRekognition calls AWS Rekognition DetectFaces
	TypeRekognition Type = "rekognition"
	// TypeDeepFace calls a DeepFace HTTP service
	TypeDeepFace Type = "deepface"
	// TypeNone disables detection
	TypeNone Type = "none"
)

// Types lists every supported backend
func Types() []Type {
	return []Type{TypePigo, TypeRekognition, TypeDeepFace, TypeNone}
}

// Valid reports whether t names a supported backend
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}
