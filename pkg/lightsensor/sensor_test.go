package lightsensor

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensor_BufferedClickDefaults(t *testing.T) {
	// Two full buffers and five samples of a third.
	s, hw, port, _, _ := newFakeSensor(2*SmallBufferSize + 5)

	require.NoError(t, s.Run(0x00))

	assert.Equal(t, ADCAccurate, hw.speed)
	assert.Equal(t, 1, hw.attaches)
	assert.Equal(t, 2, port.writes)
	assert.Equal(t, 4, hw.pulses)

	// The partial third buffer is never sent.
	out := port.Bytes()
	require.Len(t, out, 2*ModeBufferedClick.FrameSize())

	samples, buttons, err := DecodeBinary(ModeBufferedClick, out)
	require.NoError(t, err)
	assert.Equal(t, Sample(DischargeReads+1), samples[0])
	assert.Equal(t, Sample(DischargeReads+SmallBufferSize), samples[SmallBufferSize-1])
	assert.Equal(t, make([]uint8, SmallBufferSize), buttons)

	// Teardown.
	assert.Equal(t, 1, hw.releases)
	assert.GreaterOrEqual(t, hw.detaches, 1)
	assert.Nil(t, hw.handler)
	assert.False(t, hw.buttonPower)
}

func TestSensor_FrontEndSetup(t *testing.T) {
	hw := &fakeHW{}
	ConfigureFrontEnd(hw, 0)
	assert.Equal(t, [2]bool{true, true}, hw.grounded, "lowest gain grounds both taps")
	assert.Equal(t, DischargeReads, hw.reads)

	hw = &fakeHW{}
	ConfigureFrontEnd(hw, FlagHighSens1|FlagFastADC)
	assert.Equal(t, [2]bool{false, true}, hw.grounded)
	assert.Equal(t, ADCFast, hw.speed)

	hw = &fakeHW{}
	ConfigureFrontEnd(hw, FlagHighSens1|FlagHighSens2)
	assert.Equal(t, [2]bool{false, false}, hw.grounded)
}

func TestSensor_ButtonPowerDuringSession(t *testing.T) {
	s, hw, _, _, _ := newFakeSensor(3)
	var powered, autofire bool
	hw.onRead = func(n int) {
		if n == DischargeReads+1 {
			powered = hw.buttonPower
			autofire = hw.autofire
		}
	}
	require.NoError(t, s.Run(FlagNoBuffer))
	assert.True(t, powered)
	assert.False(t, autofire)
}

func TestSensor_BufferedMonitor(t *testing.T) {
	s, hw, port, ptr, _ := newFakeSensor(LargeBufferSize + 1)

	require.NoError(t, s.Run(FlagMonitor))

	assert.Zero(t, hw.attaches)
	assert.False(t, hw.buttonPower)
	assert.False(t, hw.autofire)
	assert.Zero(t, ptr.presses+ptr.releases)
	require.Equal(t, LargeBufferSize*SampleSize, port.Len())
}

func TestSensor_UnbufferedMonitorWritesEverySample(t *testing.T) {
	const n = 7
	s, _, port, _, _ := newFakeSensor(n)

	require.NoError(t, s.Run(FlagNoBuffer|FlagMonitor))

	assert.Equal(t, n, port.writes)
	out := port.Bytes()
	require.Len(t, out, n*SampleSize)
	for i := 0; i < n; i++ {
		assert.Equal(t, uint16(DischargeReads+1+i), binary.LittleEndian.Uint16(out[i*2:]))
	}
}

func TestSensor_UnbufferedClickConsumesButton(t *testing.T) {
	s, hw, port, ptr, clk := newFakeSensor(4)
	hw.onRead = func(n int) {
		switch n {
		case DischargeReads + 2:
			hw.edge(true)
		case DischargeReads + 3:
			clk.ms += 5
			hw.edge(false)
		}
	}

	require.NoError(t, s.Run(FlagNoBuffer))

	out := port.Bytes()
	require.Len(t, out, 4*ModeUnbufferedClick.FrameSize())
	var got []uint8
	for i := 0; i < 4; i++ {
		got = append(got, out[i*3+2])
	}
	assert.Equal(t, []uint8{0, 1, 0, 0}, got)
	assert.Equal(t, 1, ptr.presses)
	assert.Equal(t, 1, ptr.releases)
}

func TestSensor_AutofireNoClick(t *testing.T) {
	s, hw, port, ptr, _ := newFakeSensor(SmallBufferSize)
	var started bool
	hw.onRead = func(n int) {
		started = started || hw.autofire
		switch n - DischargeReads {
		case 3, 12:
			hw.edge(true)
		case 8, 17:
			hw.edge(false)
		}
	}

	require.NoError(t, s.Run(FlagAutofire|FlagNoClick))

	assert.True(t, started)
	assert.False(t, hw.buttonPower)
	assert.Zero(t, ptr.presses)
	assert.Zero(t, ptr.releases)

	_, buttons, err := DecodeBinary(ModeBufferedClick, port.Bytes())
	require.NoError(t, err)
	want := make([]uint8, SmallBufferSize)
	want[2], want[11] = 1, 1
	assert.Equal(t, want, buttons)
}

func TestSensor_AttachFailureStillTearsDown(t *testing.T) {
	s, hw, port, _, _ := newFakeSensor(10)
	hw.attachErr = errors.New("no interrupt")

	err := s.Run(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, hw.attachErr)
	assert.Equal(t, 1, hw.releases)
	assert.Zero(t, port.Len())
}

func TestSensor_AutofireFailureStillTearsDown(t *testing.T) {
	s, hw, port, _, _ := newFakeSensor(10)
	hw.autofireErr = errors.New("no timer")

	err := s.Run(FlagAutofire)
	require.Error(t, err)
	assert.ErrorIs(t, err, hw.autofireErr)
	assert.Zero(t, hw.attaches, "no edge handler without an edge source")
	assert.Equal(t, 1, hw.releases)
	assert.Zero(t, port.Len())
}

func TestSensor_StopBeforeFirstSample(t *testing.T) {
	s, hw, port, _, _ := newFakeSensor(0)
	require.NoError(t, s.Run(FlagNoBuffer|FlagMonitor))
	assert.Equal(t, DischargeReads, hw.reads)
	assert.Zero(t, port.Len())
}

func TestSensor_Command(t *testing.T) {
	s, hw, port, _, _ := newFakeSensor(1)

	s.Command(CommandIdle, 0)
	s.Command(0x00, 0xFF)
	assert.Zero(t, hw.reads)
	assert.Zero(t, hw.releases)

	s.Command(CommandLightSensor, byte(FlagNoBuffer|FlagMonitor))
	assert.Equal(t, DischargeReads+1, hw.reads)
	assert.Equal(t, SampleSize, port.Len())
	assert.Equal(t, 1, hw.releases)
}

func TestSensor_DiagnosticEncoder(t *testing.T) {
	s, _, port, _, _ := newFakeSensor(2)
	s.SetEncoder(NewDiagnosticEncoder())

	require.NoError(t, s.Run(FlagNoBuffer|FlagMonitor))
	assert.Equal(t, "A0\r\n101\r\n102\r\n", port.String())
}

func TestSensor_Initialize(t *testing.T) {
	s, hw, _, _, _ := newFakeSensor(0)
	s.Initialize()
	assert.Equal(t, 1, hw.releases)
	assert.Equal(t, 1, hw.detaches)
}
