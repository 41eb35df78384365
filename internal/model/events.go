package model

// Realtime channel event names.
const (
	// server to client
	EventServerMsg     = "server-msg"
	EventNewPicture    = "newPicture"
	EventCaptureFailed = "captureFailed"

	// client to server
	CommandLedOn       = "ledON"
	CommandLedOff      = "ledOFF"
	CommandTakePicture = "takePicture"
)
