package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for Canopy.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Canopy greens, light to dark
	s1 := termenv.String("   _____                                  ").Foreground(p.Color("#86efac"))
	s2 := termenv.String("  / ____|                                 ").Foreground(p.Color("#4ade80"))
	s3 := termenv.String(" | |      __ _  _ __    ___   _ __   _   _").Foreground(p.Color("#22c55e"))
	s4 := termenv.String(" | |     / _` || '_ \\  / _ \\ | '_ \\ | | | |").Foreground(p.Color("#16a34a"))
	s5 := termenv.String(" | |____| (_| || | | || (_) || |_) || |_| |").Foreground(p.Color("#15803d"))
	s6 := termenv.String("  \\_____|\\__,_||_| |_| \\___/ | .__/  \\__, |").Foreground(p.Color("#166534"))
	s7 := termenv.String("                             | |      __/ |").Foreground(p.Color("#14532d"))
	s8 := termenv.String("                             |_|     |___/ ").Foreground(p.Color("#14532d"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println(s7)
	fmt.Println(s8)
	fmt.Println()
}
