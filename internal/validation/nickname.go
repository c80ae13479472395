package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxNicknameLength = 32

// ValidateNickname returns user-friendly errors. Any text up to MaxNicknameLength runes is a
// valid nickname, spaces included, as long as it has no control characters. Nicknames are
// case-sensitive and compared byte for byte, so no normalization happens here.
func ValidateNickname(nickname string) error {
	if len(nickname) == 0 {
		return errors.New("empty nickname")
	}
	if !utf8.ValidString(nickname) {
		return errors.New("nickname is not valid UTF-8")
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return fmt.Errorf("nickname too long. Must be %d characters or less", MaxNicknameLength)
	}
	if strings.IndexFunc(nickname, unicode.IsControl) >= 0 {
		return errors.New("invalid character(s) detected. control characters are not allowed")
	}
	return nil
}

// ValidateMessage checks a text body. max of zero or less disables the length check.
func ValidateMessage(body string, max int) error {
	if len(body) == 0 {
		return errors.New("empty message")
	}
	if !utf8.ValidString(body) {
		return errors.New("message is not valid UTF-8")
	}
	if max > 0 && len(body) > max {
		return fmt.Errorf("message too long. Must be %d bytes or less", max)
	}
	return nil
}
