package perflog

var consoleNeedsEscape = func() [256]bool {
	var table [256]bool
	for i := 0; i < 0x20; i++ {
		table[i] = true
	}
	table[0x7f] = true
	return table
}()

// appendConsoleSafe appends s to dst with control bytes written as \xNN, so
// text taken from a page cannot move the cursor or restyle the terminal.
func appendConsoleSafe(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"
	lastSafe := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !consoleNeedsEscape[c] {
			continue
		}
		dst = append(dst, s[lastSafe:i]...)
		dst = append(dst, '\\', 'x', hex[c>>4], hex[c&0xf])
		lastSafe = i + 1
	}
	return append(dst, s[lastSafe:]...)
}
