package input

// Key identifies a keyboard key by its USB HID usage code (keyboard/keypad
// usage page), so sources that sit on top of real HID traffic need no
// translation table.
type Key uint8

// HID usage codes for the keys the controller and the bundled sources use.
const (
	KeyA Key = 0x04
	KeyD Key = 0x07
	KeyR Key = 0x15
	KeyS Key = 0x16
	KeyW Key = 0x1A

	KeyEscape Key = 0x29
	KeySpace  Key = 0x2C

	KeyArrowRight Key = 0x4F
	KeyArrowLeft  Key = 0x50
	KeyArrowDown  Key = 0x51
	KeyArrowUp    Key = 0x52
)

// KeySource answers whether a key is currently held down. Implementations
// must be safe to poll from the tick goroutine while events arrive elsewhere.
type KeySource interface {
	IsDown(k Key) bool
}

// Bindings maps the controller's five actions to keys.
type Bindings struct {
	Left  Key
	Right Key
	Up    Key
	Down  Key
	Reset Key
}

// DefaultBindings steers with the arrow keys and resets with R.
func DefaultBindings() Bindings {
	return Bindings{
		Left:  KeyArrowLeft,
		Right: KeyArrowRight,
		Up:    KeyArrowUp,
		Down:  KeyArrowDown,
		Reset: KeyR,
	}
}
