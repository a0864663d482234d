//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"machine/usb/hid/mouse"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
)

var (
	serial = machine.Serial

	// Pending command bytes: {cmd, flags}
	commandBuffer [2]byte
	commandPos    int
)

func main() {
	sensor := lightsensor.New(newBoard(), serial, usbPointer{m: mouse.Port()}, uptime{boot: time.Now()})
	if SERIAL_DEBUG {
		sensor.SetEncoder(lightsensor.NewDiagnosticEncoder())
	}
	sensor.Initialize()

	for {
		if readCommand() {
			// Blocks until the host sends the next byte. That byte is left unread
			// and becomes the start of the next command.
			sensor.Command(commandBuffer[0], commandBuffer[1])
			continue
		}

		// Small delay to prevent tight loop while idle
		time.Sleep(100 * time.Microsecond)
	}
}

// readCommand collects one {cmd, flags} pair and reports when it is complete.
// Commands other than the light sensor one are consumed and ignored.
func readCommand() bool {
	for serial.Buffered() > 0 {
		data, err := serial.ReadByte()
		if err != nil {
			break
		}
		commandBuffer[commandPos] = data
		commandPos++
		if commandPos == len(commandBuffer) {
			commandPos = 0
			return true
		}
	}
	return false
}
