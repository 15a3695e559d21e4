package device

import "github.com/muurk/cardputer/internal/wificonfig"

// Tee shows every frame on each of its displays in order.
type Tee []wificonfig.Display

// Show implements wificonfig.Display.
func (t Tee) Show(frame string) {
	for _, d := range t {
		if d != nil {
			d.Show(frame)
		}
	}
}
