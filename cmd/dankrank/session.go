package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dankrank/pkg/auth"
	"dankrank/pkg/config"
	"dankrank/pkg/instagram"
	"dankrank/pkg/logger"

	"golang.org/x/term"
)

// openSession builds the session client for a run. A stored account fills
// in the session when none was configured, or always when named
// explicitly. With loginUser set the session is obtained by logging in;
// the returned func logs out again.
func openSession(ctx context.Context, cfg *config.Config, account, loginUser string, log logger.Logger) (*instagram.Client, func(), error) {
	if account != "" || cfg.Session.SessionID == "" {
		if err := applyStoredAccount(cfg, account, log); err != nil {
			return nil, nil, err
		}
	}

	client := instagram.NewClient(cfg.Session, cfg.Download.Timeout, log)
	closeFn := func() {}

	if loginUser != "" {
		password := os.Getenv("DANKRANK_PASSWORD")
		if password == "" {
			var err error
			password, err = readSecret(os.Stderr, fmt.Sprintf("Password for %s: ", loginUser))
			if err != nil {
				return nil, nil, fmt.Errorf("reading password: %w", err)
			}
		}
		if err := client.Login(ctx, loginUser, password); err != nil {
			return nil, nil, err
		}
		closeFn = func() { client.Logout(context.Background()) }
	}

	if !client.HasSession() {
		log.Warn("No session configured, only public data will be reachable")
	}
	return client, closeFn, nil
}

func applyStoredAccount(cfg *config.Config, account string, log logger.Logger) error {
	dir, err := auth.DefaultConfigDir()
	if err != nil {
		return err
	}
	manager, err := auth.NewManager(dir, log)
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	var stored *auth.Account
	if account != "" {
		stored, err = manager.Retrieve(account)
	} else {
		stored, err = manager.RetrieveDefault()
	}
	switch {
	case err == nil:
		stored.Apply(&cfg.Session)
		log.InfoWithFields("Using stored session", map[string]interface{}{"account": stored.Username})
		return nil
	case errors.Is(err, auth.ErrCredentialsNotFound) && account == "":
		return nil
	default:
		return fmt.Errorf("loading stored session: %w", err)
	}
}

// readSecret prompts on w and reads a line without echo when stdin is a
// terminal
func readSecret(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
