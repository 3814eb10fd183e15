package app

import (
	"fmt"
	"image/color"
	"strings"

	"tinygo.org/x/tinyterm"

	"busscope/firmware/fbcanvas"
	"busscope/firmware/kernel"
	"busscope/hal"
)

func installPanicHandler(h hal.HAL) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}

		disp := h.Display()
		if disp == nil {
			select {}
		}
		fb := disp.Framebuffer()
		if fb == nil {
			select {}
		}

		d := fbcanvas.New(fb)
		w, ht := d.Size()
		_ = d.FillRectangle(0, 0, w, ht, color.RGBA{R: 0x80, A: 0xFF})

		term := tinyterm.NewTerminal(d)
		term.Configure(&tinyterm.Config{
			Font:              fbcanvas.Font,
			FontHeight:        10,
			FontOffset:        6,
			UseSoftwareScroll: true,
		})
		for _, line := range lines {
			fmt.Fprintf(term, "%s\r\n", line)
		}
		term.Display()
		select {}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"busscope panic:",
		fmt.Sprintf("task: %d", info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
