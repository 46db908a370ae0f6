package driver

// Special keys accepted by Element.SendKeys. The code points follow the
// remote-control protocol so key sequences can be logged and replayed.
const (
	KeyBackspace  = "\ue003"
	KeyTab        = "\ue004"
	KeyEnter      = "\ue007"
	KeyEscape     = "\ue00c"
	KeyArrowLeft  = "\ue012"
	KeyArrowUp    = "\ue013"
	KeyArrowRight = "\ue014"
	KeyArrowDown  = "\ue015"
	KeyDelete     = "\ue017"
)

var keyNames = map[rune]string{
	'\ue003': "BACK_SPACE",
	'\ue004': "TAB",
	'\ue007': "ENTER",
	'\ue00c': "ESCAPE",
	'\ue012': "ARROW_LEFT",
	'\ue013': "ARROW_UP",
	'\ue014': "ARROW_RIGHT",
	'\ue015': "ARROW_DOWN",
	'\ue017': "DELETE",
}

// KeyName returns the symbolic name of a special key, or "" for plain text.
func KeyName(r rune) string {
	return keyNames[r]
}

// HasSpecialKeys reports whether s contains any special key code point.
func HasSpecialKeys(s string) bool {
	for _, r := range s {
		if _, ok := keyNames[r]; ok {
			return true
		}
	}
	return false
}
