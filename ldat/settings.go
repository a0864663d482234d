package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goldat/pkg/ldat"
)

var sensitivityOptions = []string{"0 (lowest)", "1", "2", "3 (max)"}

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSensorTab(state),
		createLatencyTab(state),
		createDisplayTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

func (s *appState) saveConfig() {
	if err := s.cfg.Validate(); err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	if err := s.cfg.Save(s.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), s.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := ldat.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected
			}

			portChanged := state.cfg.Serial.Port != selectedPort
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selectedPort
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.Baud = baud
			}
			state.saveConfig()

			// Reconnect on the new port
			if portChanged && wasConnected && !state.useMock {
				disconnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createSensorTab creates the light sensor options tab.
func createSensorTab(state *appState) *container.TabItem {
	sc := state.cfg.Sensor

	autofire := widget.NewCheck("", nil)
	autofire.SetChecked(sc.Autofire)
	noBuffer := widget.NewCheck("", nil)
	noBuffer.SetChecked(sc.NoBuffer)
	monitor := widget.NewCheck("", nil)
	monitor.SetChecked(sc.Monitor)
	noClick := widget.NewCheck("", nil)
	noClick.SetChecked(sc.NoClick)
	fastADC := widget.NewCheck("", nil)
	fastADC.SetChecked(sc.FastADC)

	sensitivity := widget.NewSelect(sensitivityOptions, nil)
	sensitivity.SetSelectedIndex(sc.Sensitivity)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Autofire", Widget: autofire, HintText: "Toggle the click line every 500ms"},
			{Text: "No Buffer", Widget: noBuffer, HintText: "Send every sample as it is read"},
			{Text: "Monitor", Widget: monitor, HintText: "Light only, no click tracking"},
			{Text: "No Click", Widget: noClick, HintText: "Track clicks without sending them to the PC"},
			{Text: "Fast ADC", Widget: fastADC},
			{Text: "Sensitivity", Widget: sensitivity},
		},
		OnSubmit: func() {
			state.cfg.Sensor.Autofire = autofire.Checked
			state.cfg.Sensor.NoBuffer = noBuffer.Checked
			state.cfg.Sensor.Monitor = monitor.Checked
			state.cfg.Sensor.NoClick = noClick.Checked
			state.cfg.Sensor.FastADC = fastADC.Checked
			if i := sensitivity.SelectedIndex(); i >= 0 {
				state.cfg.Sensor.Sensitivity = i
			}
			state.saveConfig()
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createLatencyTab creates the latency analysis tab.
func createLatencyTab(state *appState) *container.TabItem {
	durationEntry := widget.NewEntry()
	durationEntry.SetText(state.cfg.Latency.Duration.String())

	whiteEntry := widget.NewEntry()
	whiteEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Latency.WhiteFraction))

	blackEntry := widget.NewEntry()
	blackEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Latency.BlackFraction))

	contrastEntry := widget.NewEntry()
	contrastEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Latency.MinContrast))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Recording Duration", Widget: durationEntry},
			{Text: "White Threshold (fraction)", Widget: whiteEntry},
			{Text: "Black Threshold (fraction)", Widget: blackEntry},
			{Text: "Min Contrast (ADC counts)", Widget: contrastEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(durationEntry.Text); err == nil && d > 0 {
				state.cfg.Latency.Duration = d
			}
			if f, err := strconv.ParseFloat(whiteEntry.Text, 64); err == nil {
				state.cfg.Latency.WhiteFraction = f
			}
			if f, err := strconv.ParseFloat(blackEntry.Text, 64); err == nil {
				state.cfg.Latency.BlackFraction = f
			}
			if c, err := strconv.ParseFloat(contrastEntry.Text, 64); err == nil {
				state.cfg.Latency.MinContrast = c
			}
			state.saveConfig()
		},
	}

	return container.NewTabItem("Latency", form)
}

// createDisplayTab creates the scope display tab. Changes apply on the next connection.
func createDisplayTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Display.WindowSeconds))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Display.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Display.WindowSeconds = ws
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil && avg >= 0 {
				state.cfg.Display.AverageSamples = avg
			}
			state.saveConfig()
		},
	}

	return container.NewTabItem("Display", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	mc := state.cfg.Mock

	ambientEntry := widget.NewEntry()
	ambientEntry.SetText(fmt.Sprintf("%.3f", mc.Ambient))

	brightnessEntry := widget.NewEntry()
	brightnessEntry.SetText(fmt.Sprintf("%.3f", mc.Brightness))

	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.4f", mc.NoiseLevel))

	lightDelayEntry := widget.NewEntry()
	lightDelayEntry.SetText(mc.LightDelay.String())

	flashDurationEntry := widget.NewEntry()
	flashDurationEntry.SetText(mc.FlashDuration.String())

	buttonPeriodEntry := widget.NewEntry()
	buttonPeriodEntry.SetText(mc.ButtonPeriod.String())

	bouncesEntry := widget.NewEntry()
	bouncesEntry.SetText(strconv.Itoa(mc.Bounces))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Ambient (fraction)", Widget: ambientEntry},
			{Text: "Brightness (fraction)", Widget: brightnessEntry},
			{Text: "Noise Level (fraction)", Widget: noiseLevelEntry},
			{Text: "Light Delay", Widget: lightDelayEntry},
			{Text: "Flash Duration", Widget: flashDurationEntry},
			{Text: "Button Period", Widget: buttonPeriodEntry},
			{Text: "Bounces", Widget: bouncesEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(ambientEntry.Text, 64); err == nil {
				state.cfg.Mock.Ambient = v
			}
			if v, err := strconv.ParseFloat(brightnessEntry.Text, 64); err == nil {
				state.cfg.Mock.Brightness = v
			}
			if v, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = v
			}
			if d, err := time.ParseDuration(lightDelayEntry.Text); err == nil {
				state.cfg.Mock.LightDelay = d
			}
			if d, err := time.ParseDuration(flashDurationEntry.Text); err == nil {
				state.cfg.Mock.FlashDuration = d
			}
			if d, err := time.ParseDuration(buttonPeriodEntry.Text); err == nil {
				state.cfg.Mock.ButtonPeriod = d
			}
			if n, err := strconv.Atoi(bouncesEntry.Text); err == nil && n >= 0 {
				state.cfg.Mock.Bounces = n
			}
			state.saveConfig()
		},
	}

	return container.NewTabItem("Mock", form)
}
