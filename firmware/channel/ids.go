package channel

import (
	"image/color"

	"busscope/firmware/gui"
)

// MaxChannels is how many channels the top bar and id blocks have room for.
const MaxChannels = 5

// Per-channel button roles. CAN channels reuse the parity slot for
// termination and the power slot for the identifier.
const (
	roleTop = iota
	roleEnable
	roleRate
	roleParity
	roleFormat
	roleClear
	rolePower
	roleDebug
	roleBack
	roleForward
	buttonsPerChannel

	roleTermination = roleParity
	roleIdentifier  = rolePower
)

const (
	boxLabel = iota
	boxMain
	boxInfo
	boxesPerChannel
)

const (
	containerContent = iota
	containerSidebar
	containersPerChannel
)

// Shared popouts follow the per-channel blocks.
const (
	baudPopoutButtons    = gui.ButtonOffset + MaxChannels*buttonsPerChannel
	parityPopoutButtons  = baudPopoutButtons + 10
	bitRatePopoutButtons = parityPopoutButtons + 3

	baudPopout    = gui.ContainerOffset + MaxChannels*containersPerChannel
	parityPopout  = baudPopout + 1
	bitRatePopout = baudPopout + 2
)

func buttonID(ch, role int) gui.ID { return gui.ButtonOffset + gui.ID(ch*buttonsPerChannel+role) }

func textBoxID(ch, role int) gui.ID { return gui.TextBoxOffset + gui.ID(ch*boxesPerChannel+role) }

func containerID(ch, role int) gui.ID {
	return gui.ContainerOffset + gui.ID(ch*containersPerChannel+role)
}

// buttonOwner returns the channel and role of a per-channel button.
func buttonOwner(id gui.ID) (ch, role int, ok bool) {
	if id < gui.ButtonOffset || id >= baudPopoutButtons {
		return 0, 0, false
	}
	i := int(id - gui.ButtonOffset)
	return i / buttonsPerChannel, i % buttonsPerChannel, true
}

// Callback kinds registered on the engine.
const (
	cbTop gui.CallbackKind = iota + 1
	cbEnable
	cbRate
	cbParity
	cbFormat
	cbClear
	cbPower
	cbDebug
	cbTermination
	cbIdentifier
	cbSidebar
	cbBaudSelect
	cbParitySelect
	cbBitRateSelect
	cbMainText
)

var (
	green     = color.RGBA{R: 0x00, G: 0xC8, B: 0x00, A: 0xFF}
	darkGreen = color.RGBA{R: 0x00, G: 0x50, B: 0x00, A: 0xFF}
	white     = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	red       = color.RGBA{R: 0xE0, G: 0x20, B: 0x20, A: 0xFF}
	black     = gui.Black
)

// Screen geometry for an 800x480 panel.
const (
	topH      = 50
	topW      = 100
	sideX     = 650
	sideW     = 150
	sideRowH  = 50
	sideTop   = 100
	mainH     = 400
	infoY     = 450
	infoH     = 30
	navY      = 400
	navW      = 75
	popoutX   = 500
	popoutW   = 149
	popoutRow = 40
)
