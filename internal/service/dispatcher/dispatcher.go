// Package dispatcher maps serial lines and browser commands to actions.
package dispatcher

import (
	"picturebridge/internal/logger"
	"picturebridge/internal/model"
	"picturebridge/internal/service/capture"
)

// Serial control bytes understood by the microcontroller.
const (
	ByteLedOn  byte = 'H'
	ByteLedOff byte = 'L'
)

// TriggerLine is the serial line that starts a capture.
const TriggerLine = "light"

// SerialWriter sends one byte to the microcontroller.
type SerialWriter interface {
	WriteByte(b byte) error
}

// Notifier delivers events to every browser or to a single one.
type Notifier interface {
	Broadcast(event, payload string)
	SendTo(clientID, event, payload string)
}

// Capturer accepts capture requests.
type Capturer interface {
	Submit(req capture.Request) error
}

// Dispatcher holds no state of its own; every call is independent.
type Dispatcher struct {
	serial   SerialWriter
	notifier Notifier
	capturer Capturer
	logger   *logger.Logger
}

func New(serial SerialWriter, notifier Notifier, capturer Capturer, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		serial:   serial,
		notifier: notifier,
		capturer: capturer,
		logger:   logger,
	}
}

// HandleSerialLine relays line to every browser, then starts a capture if
// the line is the trigger.
func (d *Dispatcher) HandleSerialLine(line string) {
	d.logger.Info("Data: %s", line)
	d.notifier.Broadcast(model.EventServerMsg, line)

	if line == TriggerLine {
		d.submit(model.OriginSerial)
	}
}

// HandleClientCommand runs a browser command. Unknown commands are ignored.
func (d *Dispatcher) HandleClientCommand(clientID, command string) {
	switch command {
	case model.CommandLedOn:
		d.logger.Info("%s from %s", command, clientID)
		d.write(ByteLedOn)
	case model.CommandLedOff:
		d.logger.Info("%s from %s", command, clientID)
		d.write(ByteLedOff)
	case model.CommandTakePicture:
		d.logger.Info("%s from %s", command, clientID)
		d.submit(clientID)
	}
}

func (d *Dispatcher) write(b byte) {
	if err := d.serial.WriteByte(b); err != nil {
		d.logger.Error("Failed to send %q to microcontroller: %v", b, err)
	}
}

func (d *Dispatcher) submit(origin string) {
	if err := d.capturer.Submit(capture.Request{Origin: origin}); err != nil {
		d.logger.Warning("Capture from %s not started: %v", origin, err)
		if origin != model.OriginSerial {
			d.notifier.SendTo(origin, model.EventCaptureFailed, err.Error())
		}
	}
}
