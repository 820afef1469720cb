package render

import "github.com/valerio/arduboy-emu/arduboy/display"

// IsLit reports whether a packed framebuffer pixel is on (non-black).
func IsLit(pixel uint32) bool {
	return pixel&^uint32(display.Off) != 0
}

// HalfBlockChar returns the block-drawing character for a pair of vertically
// stacked pixels, letting one terminal cell represent two screen rows.
func HalfBlockChar(topLit, bottomLit bool) rune {
	switch {
	case topLit && bottomLit:
		return '█'
	case topLit && !bottomLit:
		return '▀'
	case !topLit && bottomLit:
		return '▄'
	default:
		return ' '
	}
}

// RenderFrameToHalfBlocks converts a frame buffer to half-block text rows,
// one string per text row (height/2 rows for a height-row framebuffer).
func RenderFrameToHalfBlocks(frame []uint32, width, height int) []string {
	if len(frame) < width*height {
		return nil
	}

	textHeight := (height + 1) / 2
	lines := make([]string, textHeight)

	for textRow := 0; textRow < textHeight; textRow++ {
		line := make([]rune, width)
		topRow := textRow * 2
		bottomRow := topRow + 1

		for x := 0; x < width; x++ {
			topLit := IsLit(frame[topRow*width+x])
			bottomLit := false
			if bottomRow < height {
				bottomLit = IsLit(frame[bottomRow*width+x])
			}
			line[x] = HalfBlockChar(topLit, bottomLit)
		}

		lines[textRow] = string(line)
	}

	return lines
}
