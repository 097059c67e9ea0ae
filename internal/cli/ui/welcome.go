package ui

import (
	"fmt"
	"io"
	"time"

	"deviceRotate/internal/device"
)

const Version = "v0.1.0"

// PrintWelcome выводит шапку прогона
func PrintWelcome(w io.Writer, targetURL string, profiles []device.Profile, interval time.Duration, maxIterations int) {
	fmt.Fprintln(w, ColorBold+IconLoop+" deviceRotate "+Version+ColorReset)
	fmt.Fprintln(w, ColorGray+"Ротация устройств: скриншот и проверка страницы по кругу"+ColorReset)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  "+IconGlobe+" URL: "+ColorGreen+targetURL+ColorReset)
	fmt.Fprintf(w, "  %s Интервал: %s, максимум итераций: %d\n", IconLoop, interval, maxIterations)
	fmt.Fprintln(w, "  "+IconPhone+" Устройства:")
	for _, p := range profiles {
		fmt.Fprintln(w, "     - "+p.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Внимание:"+ColorReset+" IP не меняется, ротируются только параметры устройства")
	fmt.Fprintln(w, ColorGray+"Нажмите CTRL+C для остановки"+ColorReset)
	fmt.Fprintln(w)
}

// PrintGoodbye печатается после штатной остановки
func PrintGoodbye(w io.Writer) {
	fmt.Fprintln(w, ColorCyan+IconWave+" Остановлено"+ColorReset)
}
