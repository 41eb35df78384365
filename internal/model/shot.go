package model

// Shot is one picture written by the camera.
type Shot struct {
	// Path is where the picture was written.
	Path string
	// Data holds the encoded bytes when the camera delivers buffers.
	Data []byte
	// Base64 holds the encoded bytes when the camera delivers base64 text.
	Base64 string
}
