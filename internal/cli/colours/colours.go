package colours

import "github.com/fatih/color"

// Colour scheme for feedctl output.
var (
	Title    = color.New(color.FgCyan, color.Bold)
	Story    = color.New(color.FgGreen)
	InfoCard = color.New(color.FgMagenta)
	Badge    = color.New(color.FgYellow, color.Bold)
	Carousel = color.New(color.FgBlue)
	Muted    = color.New(color.FgHiBlack)
	Error    = color.New(color.FgRed, color.Bold)
	Success  = color.New(color.FgGreen, color.Bold)
	Warning  = color.New(color.FgYellow)
)
