package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignupNotSupported is returned when Telegram asks the flow to register
// a brand new account; this process only ever logs into an existing one.
var ErrSignupNotSupported = errors.New("signup not supported")

// authFlow drives interactive login the same way
// internal/telegramreader/reader.go's Reader does: phone/2FA come from
// config when set, otherwise prompted on stdin.
func (l *Loop) authFlow() auth.Flow {
	return auth.NewFlow(l, auth.SendCodeOptions{})
}

func (l *Loop) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter code: ")

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read auth code: %w", err)
	}

	return strings.TrimSpace(code), nil
}

func (l *Loop) Phone(_ context.Context) (string, error) {
	if l.cfg.Phone != "" {
		return l.cfg.Phone, nil
	}

	fmt.Print("Enter phone: ")

	phone, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read phone number: %w", err)
	}

	return strings.TrimSpace(phone), nil
}

func (l *Loop) Password(_ context.Context) (string, error) {
	if l.cfg.Password2FA != "" {
		return l.cfg.Password2FA, nil
	}

	fmt.Print("Enter 2FA password: ")

	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read 2FA password: %w", err)
	}

	return strings.TrimSpace(password), nil
}

func (l *Loop) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (l *Loop) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}
